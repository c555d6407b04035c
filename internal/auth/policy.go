package auth

import "github.com/onsale/marketplace/internal/domain"

// Policy decides whether an identity may perform administrative
// operations.
type Policy interface {
	Authorize(identity string) error
}

// SingleAdmin authorizes exactly one designated identity.
type SingleAdmin struct {
	admin string
}

func NewSingleAdmin(identity string) SingleAdmin {
	return SingleAdmin{admin: identity}
}

func (p SingleAdmin) Authorize(identity string) error {
	if identity == "" || identity != p.admin {
		return domain.ErrUnauthorized
	}
	return nil
}
