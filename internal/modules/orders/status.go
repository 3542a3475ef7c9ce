package orders

import (
	"plateful-backend/internal/models"
)

// Actor identifies who is attempting a transition. RestaurantOwnerID is the
// resolved owner of the order's restaurant, looked up by the caller so the
// table stays free of I/O.
type Actor struct {
	UserID string
	Role   models.Role
}

// ownershipFn reports whether the actor's identity satisfies the ownership
// requirement for a transition (e.g. the assigned delivery person).
type ownershipFn func(o *models.Order, restaurantOwnerID string, actor Actor) bool

// transitionRule describes who may move an order into one target status, and
// from which source statuses.
type transitionRule struct {
	from []models.OrderStatus
	role models.Role
	owns ownershipFn
}

func ownsRestaurant(_ *models.Order, restaurantOwnerID string, actor Actor) bool {
	return restaurantOwnerID == actor.UserID
}

func isAssignedCourier(o *models.Order, _ string, actor Actor) bool {
	return o.DeliveryPersonID.Valid && o.DeliveryPersonID.String == actor.UserID
}

// transitionTable is the single source of truth for lifecycle legality. Every
// status-changing path (restaurant prep updates, admin assignment, courier
// handoff) authorizes against this table.
var transitionTable = map[models.OrderStatus]transitionRule{
	models.StatusPreparing: {
		from: []models.OrderStatus{models.StatusPending, models.StatusConfirmed},
		role: models.RoleRestaurantOwner,
		owns: ownsRestaurant,
	},
	models.StatusReadyForPickup: {
		from: []models.OrderStatus{models.StatusPreparing},
		role: models.RoleRestaurantOwner,
		owns: ownsRestaurant,
	},
	models.StatusAssigned: {
		from: []models.OrderStatus{models.StatusPending, models.StatusPreparing},
		role: models.RoleAdmin,
	},
	models.StatusOutForDelivery: {
		from: []models.OrderStatus{models.StatusAssigned},
		role: models.RoleDeliveryPerson,
		owns: isAssignedCourier,
	},
	models.StatusDelivered: {
		from: []models.OrderStatus{models.StatusOutForDelivery},
		role: models.RoleDeliveryPerson,
		owns: isAssignedCourier,
	},
}

// AuthorizeTransition checks whether the actor may move the order to the
// target status. Role and ownership are checked before the source status, so
// an outsider probing an order learns nothing about its state.
func AuthorizeTransition(o *models.Order, restaurantOwnerID string, target models.OrderStatus, actor Actor) error {
	rule, ok := transitionTable[target]
	if !ok {
		return models.ErrInvalidStateTransition
	}

	if actor.Role != rule.role {
		return models.ErrUnauthorized
	}
	if rule.owns != nil && !rule.owns(o, restaurantOwnerID, actor) {
		return models.ErrUnauthorized
	}

	for _, s := range rule.from {
		if o.Status == s {
			return nil
		}
	}
	return models.ErrInvalidStateTransition
}

// CanMutateCoupon reports whether coupon apply/remove is still allowed for
// the order. Coupon changes are side-mutations, not transitions, and are
// permitted at any pre-terminal status.
func CanMutateCoupon(o *models.Order) bool {
	return !o.Status.IsTerminal()
}
