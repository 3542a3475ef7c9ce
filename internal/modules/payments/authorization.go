package payments

import (
	"plateful-backend/internal/models"
)

// AuthorizeUpdate decides whether the actor may apply the requested field
// changes to the payment.
//
// Delivery persons settle cash on the doorstep, so they may flip the status
// of a CASH_ON_DELIVERY payment and nothing else. Every other field in their
// request is rejected outright.
//
// TODO: all other roles may currently update amount, method and
// transaction_id freely, which lets a customer rewrite their own charge. This
// mirrors the existing behavior and needs a product decision before
// tightening.
func AuthorizeUpdate(p *models.Payment, req models.UpdatePaymentRequest, role models.Role) error {
	if role == models.RoleDeliveryPerson {
		if p.Method != models.MethodCashOnDelivery {
			return models.ErrUnauthorizedPaymentUpdate
		}
		if req.Amount != nil || req.Method != nil || req.TransactionID != nil {
			return models.ErrFieldNotPermitted
		}
		return nil
	}

	return nil
}
