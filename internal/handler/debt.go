package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/inkaso/collections-engine/internal/service"
	customError "github.com/inkaso/collections-engine/pkg/errors"
	"github.com/inkaso/collections-engine/pkg/response"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/repository"
)

// TenantHeader carries the caller's tenant scope. Authentication itself is
// handled upstream; handlers only trust the resolved header.
const TenantHeader = "X-Tenant-ID"

// UserHeader identifies the acting staff user or debtor token subject.
const UserHeader = "X-User-ID"

type DebtHandler struct {
	service   *service.DebtService
	payments  repository.PaymentRepository
	validator *validator.Validate
}

func NewDebtHandler(service *service.DebtService, payments repository.PaymentRepository) *DebtHandler {
	return &DebtHandler{
		service:   service,
		payments:  payments,
		validator: validator.New(),
	}
}

func tenantID(r *http.Request) string {
	return r.Header.Get(TenantHeader)
}

func userID(r *http.Request) string {
	return r.Header.Get(UserHeader)
}

// decodeAndValidate parses the JSON body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, v *validator.Validate, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return v.Struct(dst)
}

func requireTenant(w http.ResponseWriter, r *http.Request) (string, bool) {
	tenant := tenantID(r)
	if tenant == "" {
		response.BadRequest(w, customError.ErrCodeValidationError, "missing tenant header")
		return "", false
	}
	return tenant, true
}

func (h *DebtHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.CreateDebtRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	debt, err := h.service.CreateDebt(r.Context(), tenant, &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, debt)
}

func (h *DebtHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	debt, err := h.service.GetDebt(r.Context(), tenant, mux.Vars(r)["debtId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, debt)
}

func (h *DebtHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	debt, err := h.service.Verify(r.Context(), tenant, mux.Vars(r)["debtId"], userID(r))
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, debt)
}

func (h *DebtHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), tenant, mux.Vars(r)["debtId"]); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"deleted": mux.Vars(r)["debtId"]})
}

func (h *DebtHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.RecordPaymentRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), tenant, mux.Vars(r)["debtId"], &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, payment)
}

func (h *DebtHandler) Transition(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.TransitionDebtRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	debt, err := h.service.Transition(r.Context(), tenant, mux.Vars(r)["debtId"], &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, debt)
}

func (h *DebtHandler) RaiseDispute(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.SubmitDisputeRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	dispute, err := h.service.RaiseDispute(r.Context(), tenant, mux.Vars(r)["debtId"], userID(r), &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, dispute)
}

func (h *DebtHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.ResolveDisputeRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	dispute, err := h.service.ResolveDispute(r.Context(), tenant, mux.Vars(r)["disputeId"], &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, dispute)
}

// ListPayments returns the most recent payments recorded against a debt.
func (h *DebtHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	payments, err := h.payments.ListByDebtID(r.Context(), tenant, mux.Vars(r)["debtId"], 10)
	if err != nil {
		response.InternalServerError(w, "failed to fetch payments")
		return
	}

	response.Success(w, payments)
}
