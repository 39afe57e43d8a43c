package services

import (
	"dormstore/internal/domain"
	"dormstore/internal/repos"
)

// OrderService serves order history and the admin status workflow.
type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

// ForViewer returns the order if viewer owns it or is an admin. Anyone else
// gets NotFoundError so order numbers cannot be probed.
func (s *OrderService) ForViewer(number string, viewer *domain.User) (domain.OrderDetail, error) {
	o, err := s.Orders.ByNumber(number)
	if err != nil {
		return domain.OrderDetail{}, lookup("order", err)
	}
	if viewer == nil || (o.UserID != viewer.ID && !viewer.IsAdmin()) {
		return domain.OrderDetail{}, &NotFoundError{What: "order"}
	}
	d, err := s.Orders.Detail(o)
	if err != nil {
		return domain.OrderDetail{}, storage("load order lines", err)
	}
	return d, nil
}

func (s *OrderService) History(userID string) ([]domain.Order, error) {
	out, err := s.Orders.ListByUser(userID)
	if err != nil {
		return nil, storage("list orders", err)
	}
	return out, nil
}

func (s *OrderService) Latest(limit int) ([]domain.Order, error) {
	out, err := s.Orders.ListLatest(limit)
	if err != nil {
		return nil, storage("list orders", err)
	}
	return out, nil
}

// UpdateStatus moves an order along its lifecycle.
func (s *OrderService) UpdateStatus(id int64, status string) (domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return domain.Order{}, invalid("unknown order status %q", status)
	}
	o, err := s.Orders.Get(id)
	if err != nil {
		return domain.Order{}, lookup("order", err)
	}
	if o.OrderStatus == status {
		return o, nil
	}
	if !domain.CanTransition(o.OrderStatus, status) {
		return domain.Order{}, invalid("cannot move order from %s to %s", o.OrderStatus, status)
	}
	if err := s.Orders.UpdateStatus(id, status); err != nil {
		return domain.Order{}, lookup("order", err)
	}
	o.OrderStatus = status
	return o, nil
}
