package bank_account_controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/models/bank_account_models"
	"github.com/joy095/servicehub/utils"
)

type BankAccountController struct {
	Banks bank_account_models.Store
}

func NewBankAccountController(banks bank_account_models.Store) *BankAccountController {
	return &BankAccountController{Banks: banks}
}

type SaveBankAccountRequest struct {
	AccountHolderName string `json:"accountHolderName" binding:"required"`
	AccountNumber     string `json:"accountNumber" binding:"required"`
	IFSC              string `json:"ifsc" binding:"required"`
	BankName          string `json:"bankName" binding:"required"`
}

// SaveBankAccount - PUT /bank-accounts
//
// A professional keeps a single payout account; saving replaces it. Payouts
// already requested keep the details they were created with.
func (ctrl *BankAccountController) SaveBankAccount(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}

	var req SaveBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.Validation("invalid request: %v", err))
		return
	}

	acc := &bank_account_models.BankAccount{
		UserID:            userID,
		AccountHolderName: req.AccountHolderName,
		AccountNumber:     req.AccountNumber,
		IFSC:              req.IFSC,
		BankName:          req.BankName,
	}
	acc.Normalize()
	if err := acc.Validate(); err != nil {
		utils.RespondError(c, err)
		return
	}

	if err := ctrl.Banks.Upsert(c.Request.Context(), acc); err != nil {
		utils.RespondError(c, err)
		return
	}

	logger.InfoLogger.Infof("Bank account %s saved for user %s", acc.BankID, userID)
	c.JSON(http.StatusOK, gin.H{"success": true, "bankAccount": acc.Masked()})
}

// GetBankAccount - GET /bank-accounts
func (ctrl *BankAccountController) GetBankAccount(c *gin.Context) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.RespondUnauthorized(c)
		return
	}

	acc, err := ctrl.Banks.GetByUser(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if acc == nil {
		utils.RespondError(c, utils.NotFound("no bank account on file"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bankAccount": acc.Masked()})
}
