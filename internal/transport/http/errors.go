package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed         = "method_not_allowed"
	codeNotFound                 = "not_found"
	codeInvalidRequestBody       = "invalid_request_body"
	codeInvalidEventID           = "invalid_event_id"
	codeEventNotFound            = "event_not_found"
	codeUnauthorized             = "unauthorized"
	codeInvalidCapacity          = "invalid_capacity"
	codeInvalidQuantity          = "invalid_quantity"
	codeInvalidDenomination      = "invalid_denomination"
	codePayerRequired            = "payer_required"
	codeAddressRequired          = "address_required"
	codeCapacityDecreaseRejected = "capacity_decrease_rejected"
	codeSoldOut                  = "sold_out"
	codeInsufficientPayment      = "insufficient_payment"
	codePaymentTransferFailed    = "payment_transfer_failed"
	codeIssuanceFailed           = "issuance_failed"
	codeAmountOverflow           = "amount_overflow"
	codeForbidden                = "forbidden"
	codeInternalError            = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
