package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/foldline/boxoffice/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeUnauthorized       = "unauthorized"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
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

type errorMapping struct {
	status int
	code   string
}

// errorStatus maps domain errors to their HTTP representation. 423 marks
// deletions blocked by dependent orders; 409 is reserved for conflicts and
// lock acquisition failures.
var errorStatus = map[error]errorMapping{
	domain.ErrInvalidID:   {http.StatusNotFound, codeNotFound},
	domain.ErrInvalidPage: {http.StatusNotFound, "invalid_page"},

	domain.ErrOrganizerNotFound: {http.StatusForbidden, codeForbidden},
	domain.ErrTokenInvalid:      {http.StatusUnauthorized, codeUnauthorized},

	domain.ErrEventNotFound:     {http.StatusNotFound, "event_not_found"},
	domain.ErrEventNameRequired: {http.StatusBadRequest, "event_name_required"},
	domain.ErrEventSlugRequired: {http.StatusBadRequest, "event_slug_required"},
	domain.ErrEventSlugTaken:    {http.StatusConflict, "event_slug_taken"},
	domain.ErrEventHasOrders:    {http.StatusLocked, "event_has_orders"},

	domain.ErrSubeventNotFound:  {http.StatusNotFound, "subevent_not_found"},
	domain.ErrSubeventRequired:  {http.StatusBadRequest, "subevent_required"},
	domain.ErrSubeventsDisabled: {http.StatusBadRequest, "subevents_disabled"},
	domain.ErrSubeventHasOrders: {http.StatusLocked, "subevent_has_orders"},

	domain.ErrItemNotFound:      {http.StatusNotFound, "item_not_found"},
	domain.ErrItemNameRequired:  {http.StatusBadRequest, "item_name_required"},
	domain.ErrVariationNotFound: {http.StatusBadRequest, "variation_not_found"},
	domain.ErrItemInUse:         {http.StatusLocked, "item_in_use"},
	domain.ErrInvalidPrice:      {http.StatusBadRequest, "invalid_price"},

	domain.ErrQuotaNotFound:     {http.StatusNotFound, "quota_not_found"},
	domain.ErrQuotaNameRequired: {http.StatusBadRequest, "quota_name_required"},
	domain.ErrInvalidQuotaSize:  {http.StatusBadRequest, "invalid_quota_size"},
	domain.ErrQuotaItemsMissing: {http.StatusBadRequest, "quota_items_missing"},
	domain.ErrInsufficientQuota: {http.StatusConflict, "insufficient_quota"},

	domain.ErrCartPositionNotFound: {http.StatusNotFound, "cart_position_not_found"},
	domain.ErrCartPositionExpired:  {http.StatusBadRequest, "cart_position_expired"},

	domain.ErrSeatNotFound:     {http.StatusNotFound, "seat_not_found"},
	domain.ErrSeatGUIDRequired: {http.StatusBadRequest, "seat_guid_required"},
	domain.ErrSeatTaken:        {http.StatusConflict, "seat_taken"},
	domain.ErrSeatBlocked:      {http.StatusBadRequest, "seat_blocked"},

	domain.ErrOrderNotFound:      {http.StatusNotFound, "order_not_found"},
	domain.ErrOrderCodeTaken:     {http.StatusConflict, "order_code_taken"},
	domain.ErrOrderLocked:        {http.StatusConflict, "order_locked"},
	domain.ErrOrderNotPending:    {http.StatusBadRequest, "order_not_pending"},
	domain.ErrOrderNotExpired:    {http.StatusBadRequest, "order_not_expired"},
	domain.ErrInvalidTransition:  {http.StatusBadRequest, "invalid_transition"},
	domain.ErrNoPositions:        {http.StatusBadRequest, "no_positions"},
	domain.ErrPositionNotFound:   {http.StatusNotFound, "position_not_found"},
	domain.ErrEmailRequired:      {http.StatusBadRequest, "email_required"},
	domain.ErrInvalidOrderStatus: {http.StatusBadRequest, "invalid_order_status"},

	domain.ErrCheckinListNotFound:     {http.StatusNotFound, "checkin_list_not_found"},
	domain.ErrCheckinListNameRequired: {http.StatusBadRequest, "checkin_list_name_required"},
	domain.ErrInvalidCheckinType:      {http.StatusBadRequest, "invalid_checkin_type"},
	domain.ErrNonceRequired:           {http.StatusBadRequest, "nonce_required"},
	domain.ErrOrderNotPaid:            {http.StatusBadRequest, "order_not_paid"},
	domain.ErrProductNotAllowed:       {http.StatusBadRequest, "product_not_allowed"},
	domain.ErrAlreadyRedeemed:         {http.StatusConflict, "already_redeemed"},

	domain.ErrVoucherNotFound:       {http.StatusNotFound, "voucher_not_found"},
	domain.ErrVoucherCodeRequired:   {http.StatusBadRequest, "voucher_code_required"},
	domain.ErrInvalidPriceMode:      {http.StatusBadRequest, "invalid_price_mode"},
	domain.ErrInvalidPercent:        {http.StatusBadRequest, "invalid_percent"},
	domain.ErrVoucherCodeTaken:      {http.StatusConflict, "voucher_code_taken"},
	domain.ErrVoucherBudgetExceeded: {http.StatusConflict, "voucher_budget_exceeded"},
	domain.ErrVoucherExpired:        {http.StatusBadRequest, "voucher_expired"},
	domain.ErrVoucherItemMismatch:   {http.StatusBadRequest, "voucher_item_mismatch"},
	domain.ErrVoucherRedeemed:       {http.StatusForbidden, "voucher_redeemed"},

	domain.ErrInvoiceNotFound: {http.StatusNotFound, "invoice_not_found"},

	domain.ErrCustomerNotFound:   {http.StatusNotFound, "customer_not_found"},
	domain.ErrCustomerEmailTaken: {http.StatusConflict, "customer_email_taken"},
	domain.ErrPasswordRequired:   {http.StatusBadRequest, "password_required"},
	domain.ErrInvalidCredentials: {http.StatusUnauthorized, "invalid_credentials"},

	domain.ErrExhibitorNotFound:     {http.StatusNotFound, "exhibitor_not_found"},
	domain.ErrExhibitorNameRequired: {http.StatusBadRequest, "exhibitor_name_required"},

	domain.ErrExportNotFound:      {http.StatusNotFound, "export_not_found"},
	domain.ErrExportRunning:       {http.StatusConflict, "export_running"},
	domain.ErrExportFailed:        {http.StatusExpectationFailed, "export_failed"},
	domain.ErrExportExpired:       {http.StatusGone, "export_expired"},
	domain.ErrUnknownExportFormat: {http.StatusBadRequest, "unknown_export_format"},
}

// respondError translates a domain error into the JSON error envelope.
// Unknown errors become an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	for sentinel, m := range errorStatus {
		if errors.Is(err, sentinel) {
			writeError(w, m.status, m.code, sentinel.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
