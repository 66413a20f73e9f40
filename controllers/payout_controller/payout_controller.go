package payout_controller

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/servicehub/clients"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/middlewares/metrics"
	"github.com/joy095/servicehub/models/bank_account_models"
	"github.com/joy095/servicehub/models/earnings_models"
	"github.com/joy095/servicehub/models/notification_models"
	"github.com/joy095/servicehub/models/payout_models"
	"github.com/joy095/servicehub/utils"
	"github.com/joy095/servicehub/utils/notify"
	"github.com/shopspring/decimal"
)

// PayoutController handles payout requests against the derived ledger and the
// admin side of the payout lifecycle.
type PayoutController struct {
	Payouts   payout_models.Store
	Banks     bank_account_models.Store
	Ledger    *earnings_models.Ledger
	Notifier  notify.Notifier
	Events    clients.EventPublisher
	MinPayout decimal.Decimal

	Now func() time.Time
}

func NewPayoutController(payouts payout_models.Store, banks bank_account_models.Store, ledger *earnings_models.Ledger,
	notifier notify.Notifier, events clients.EventPublisher, minPayout decimal.Decimal) *PayoutController {
	if events == nil {
		events = clients.NoopPublisher{}
	}
	return &PayoutController{
		Payouts:   payouts,
		Banks:     banks,
		Ledger:    ledger,
		Notifier:  notifier,
		Events:    events,
		MinPayout: minPayout,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

type RequestPayoutRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
	Notes  string           `json:"notes"`
}

type UpdatePayoutStatusRequest struct {
	Status        payout_models.PayoutStatus `json:"status" binding:"required"`
	Reference     string                     `json:"reference"`
	FailureReason string                     `json:"failureReason"`
}

// CreatePayout validates a withdrawal and records it as pending. Checks run in
// a fixed order and the first failure wins:
//
//  1. bank account on file
//  2. no payout already pending or processing
//  3. amount at least the configured minimum
//  4. amount within the available balance
//
// Steps 2 to 4 and the insert run under the professional's payout lock.
func (pc *PayoutController) CreatePayout(ctx context.Context, professionalID uuid.UUID, amount decimal.Decimal, notes string) (*payout_models.Payout, error) {
	bank, err := pc.Banks.GetByUser(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if !bank.HasPayoutDetails() {
		return nil, utils.ErrMissingBankDetails
	}

	var payout *payout_models.Payout
	err = pc.Payouts.WithProfessionalLock(ctx, professionalID, func(ctx context.Context, tx payout_models.LockedTx) error {
		existing, err := tx.ListByProfessional(ctx, professionalID)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if p.Status.Outstanding() {
				return utils.ErrPayoutAlreadyPending
			}
		}

		if amount.LessThan(pc.MinPayout) {
			return utils.ErrBelowMinimumPayout.Withf("minimum payout amount is %s", pc.MinPayout.StringFixed(2))
		}

		balance, err := pc.Ledger.ComputeWithPayouts(ctx, professionalID, existing)
		if err != nil {
			return err
		}
		if amount.GreaterThan(balance.AvailableBalance) {
			return utils.ErrInsufficientBalance.Withf("requested %s exceeds available balance %s",
				amount.StringFixed(2), balance.AvailableBalance.StringFixed(2))
		}

		payout, err = payout_models.NewPayout(professionalID, amount, notes, bank.Snapshot())
		if err != nil {
			return err
		}
		return tx.Insert(ctx, payout)
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// RequestPayout - POST /payouts
func (pc *PayoutController) RequestPayout(c *gin.Context) {
	professionalID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}

	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.Validation("invalid request: %v", err))
		return
	}
	if !req.Amount.Equal(req.Amount.Round(2)) {
		utils.RespondError(c, utils.Validation("amount cannot have more than two decimal places"))
		return
	}

	ctx := c.Request.Context()
	payout, err := pc.CreatePayout(ctx, professionalID, req.Amount.Round(2), req.Notes)
	if err != nil {
		metrics.PayoutRequests.WithLabelValues(string(utils.KindOf(err))).Inc()
		logger.WarnLogger.Warnf("Payout request by %s for %s rejected: %v", professionalID, req.Amount.StringFixed(2), err)
		utils.RespondError(c, err)
		return
	}

	metrics.PayoutRequests.WithLabelValues("created").Inc()
	logger.InfoLogger.Infof("Payout %s of %s requested by professional %s", payout.ID, payout.Amount.StringFixed(2), professionalID)

	notify.Send(ctx, pc.Notifier, professionalID, notification_models.TypePayoutRequested,
		fmt.Sprintf("Your payout request of %s has been received and is pending", payout.Amount.StringFixed(2)), nil)
	pc.Events.Publish(ctx, clients.EventPayoutRequested, professionalID.String(), gin.H{
		"payoutId":       payout.ID,
		"professionalId": professionalID,
		"amount":         payout.Amount,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Payout request submitted",
		"payout":  maskPayout(*payout),
	})
}

// GetBalance - GET /payouts/balance
func (pc *PayoutController) GetBalance(c *gin.Context) {
	professionalID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}

	balance, err := pc.Ledger.ComputeBalance(c.Request.Context(), professionalID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"balance":         balance,
		"minPayoutAmount": pc.MinPayout,
	})
}

// ListPayouts - GET /payouts
func (pc *PayoutController) ListPayouts(c *gin.Context) {
	professionalID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}

	payouts, err := pc.Payouts.ListByProfessional(c.Request.Context(), professionalID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	out := make([]payout_models.Payout, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, maskPayout(p))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "payouts": out})
}

// UpdatePayoutStatus - PATCH /admin/payouts/:id/status
//
// Used by the disbursement side to move a payout along its lifecycle.
func (pc *PayoutController) UpdatePayoutStatus(c *gin.Context) {
	payoutID, err := utils.ParseUUIDParam(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var req UpdatePayoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.Validation("invalid request: %v", err))
		return
	}

	ctx := c.Request.Context()
	payout, err := pc.Payouts.Get(ctx, payoutID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	from := payout.Status
	if err := payout.Advance(req.Status, req.Reference, req.FailureReason, pc.Now()); err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := pc.Payouts.UpdateStatus(ctx, payout, from); err != nil {
		utils.RespondError(c, err)
		return
	}

	logger.InfoLogger.Infof("Payout %s moved from %s to %s", payout.ID, from, payout.Status)
	notify.Send(ctx, pc.Notifier, payout.ProfessionalID, notification_models.TypePayoutStatus,
		fmt.Sprintf("Your payout of %s is now %s", payout.Amount.StringFixed(2), payout.Status), nil)
	pc.Events.Publish(ctx, clients.EventPayoutStatusChanged, payout.ProfessionalID.String(), gin.H{
		"payoutId":       payout.ID,
		"professionalId": payout.ProfessionalID,
		"from":           from,
		"to":             payout.Status,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "payout": maskPayout(*payout)})
}

func maskPayout(p payout_models.Payout) payout_models.Payout {
	p.BankAccount.AccountNumber = p.BankAccount.MaskedAccountNumber()
	return p
}
