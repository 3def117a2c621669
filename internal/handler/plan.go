package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/inkaso/collections-engine/internal/domain"
	"github.com/inkaso/collections-engine/internal/service"
	customError "github.com/inkaso/collections-engine/pkg/errors"
	"github.com/inkaso/collections-engine/pkg/response"
)

type PlanHandler struct {
	service   *service.PlanService
	validator *validator.Validate
}

func NewPlanHandler(service *service.PlanService) *PlanHandler {
	return &PlanHandler{
		service:   service,
		validator: validator.New(),
	}
}

func (h *PlanHandler) Propose(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.ProposePlanRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	plan, err := h.service.Propose(r.Context(), tenant, mux.Vars(r)["debtId"], &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, plan)
}

func (h *PlanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	schedule, err := h.service.Approve(r.Context(), tenant, mux.Vars(r)["planId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, schedule)
}

func (h *PlanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.RejectPlanRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	plan, err := h.service.Reject(r.Context(), tenant, mux.Vars(r)["planId"], req.Reason)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, plan)
}

func (h *PlanHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), tenant, mux.Vars(r)["planId"])
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, schedule)
}

func (h *PlanHandler) RecordInstallmentPayment(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req domain.RecordInstallmentPaymentRequest
	if err := decodeAndValidate(r, h.validator, &req); err != nil {
		response.BadRequest(w, customError.ErrCodeValidationError, err.Error())
		return
	}

	payment, err := h.service.RecordInstallmentPayment(r.Context(), tenant, mux.Vars(r)["installmentId"], &req)
	if err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Created(w, payment)
}

func (h *PlanHandler) Accelerate(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireTenant(w, r)
	if !ok {
		return
	}

	if err := h.service.Accelerate(r.Context(), tenant, mux.Vars(r)["planId"]); err != nil {
		response.BusinessError(w, err)
		return
	}

	response.Success(w, map[string]string{"accelerated": mux.Vars(r)["planId"]})
}
