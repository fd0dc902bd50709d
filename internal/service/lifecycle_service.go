// Package service exposes the lifecycle orchestrator over Connect RPC.
package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/circles/internal/lifecycle"
	"github.com/mmynk/circles/internal/models"
	"github.com/mmynk/circles/pkg/circlesv1"
)

// Ensure LifecycleService implements the generated handler interface.
var _ circlesv1.LifecycleServiceHandler = (*LifecycleService)(nil)

// LifecycleService implements the Connect LifecycleService. It reads the
// clock once per request and hands it to the orchestrator.
type LifecycleService struct {
	orch *lifecycle.Orchestrator
	now  func() time.Time
}

// NewLifecycleService creates a new LifecycleService backed by orch.
func NewLifecycleService(orch *lifecycle.Orchestrator) *LifecycleService {
	return &LifecycleService{orch: orch, now: time.Now}
}

// WithClock replaces the request clock. Used by tests.
func (s *LifecycleService) WithClock(now func() time.Time) *LifecycleService {
	s.now = now
	return s
}

func respond(res lifecycle.Result) *connect.Response[circlesv1.OperationResponse] {
	return connect.NewResponse(&circlesv1.OperationResponse{Result: toResult(res)})
}

func toResult(res lifecycle.Result) circlesv1.Result {
	return circlesv1.Result{
		Success:     res.Success,
		Message:     res.Message,
		Code:        string(res.Code),
		FieldErrors: res.FieldErrors,
		ID:          res.ID,
	}
}

// CreateCircle opens a new circle.
func (s *LifecycleService) CreateCircle(ctx context.Context, req *connect.Request[circlesv1.CreateCircleRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("CreateCircle request received", "currency", req.Msg.Currency, "price", req.Msg.Price)

	res := s.orch.CreateCircle(ctx, lifecycle.CreateCircleInput{
		ModeratorID: req.Msg.ModeratorID,
		MinMembers:  req.Msg.MinMembers,
		MaxMembers:  req.Msg.MaxMembers,
		Price:       req.Msg.Price,
		Currency:    req.Msg.Currency,
		Now:         s.now(),
	})
	return respond(res), nil
}

// InviteMember creates a pending membership.
func (s *LifecycleService) InviteMember(ctx context.Context, req *connect.Request[circlesv1.InviteMemberRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("InviteMember request received", "circle_id", req.Msg.CircleID, "user_id", req.Msg.UserID)

	res := s.orch.InviteMember(ctx, lifecycle.InviteMemberInput{
		CircleID: req.Msg.CircleID,
		UserID:   req.Msg.UserID,
		Now:      s.now(),
	})
	return respond(res), nil
}

// RemoveMembership removes a member and refunds their future meetings.
func (s *LifecycleService) RemoveMembership(ctx context.Context, req *connect.Request[circlesv1.RemoveMembershipRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("RemoveMembership request received", "membership_id", req.Msg.MembershipID)

	res := s.orch.RemoveMembership(ctx, lifecycle.RemoveMembershipInput{
		MembershipID: req.Msg.MembershipID,
		Reason:       req.Msg.Reason,
		Now:          s.now(),
	})
	return respond(res), nil
}

// RestoreMembership re-invites a removed member.
func (s *LifecycleService) RestoreMembership(ctx context.Context, req *connect.Request[circlesv1.RestoreMembershipRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("RestoreMembership request received", "membership_id", req.Msg.MembershipID)

	res := s.orch.RestoreMembership(ctx, lifecycle.RestoreMembershipInput{
		MembershipID: req.Msg.MembershipID,
		Now:          s.now(),
	})
	return respond(res), nil
}

// AcceptMembership activates a pending membership.
func (s *LifecycleService) AcceptMembership(ctx context.Context, req *connect.Request[circlesv1.AcceptMembershipRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("AcceptMembership request received", "membership_id", req.Msg.MembershipID)

	res := s.orch.AcceptMembership(ctx, lifecycle.AcceptMembershipInput{
		MembershipID: req.Msg.MembershipID,
		Now:          s.now(),
	})
	return respond(res), nil
}

// LeaveCircle ends the caller's membership.
func (s *LifecycleService) LeaveCircle(ctx context.Context, req *connect.Request[circlesv1.LeaveCircleRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("LeaveCircle request received", "membership_id", req.Msg.MembershipID)

	res := s.orch.LeaveCircle(ctx, lifecycle.LeaveCircleInput{
		MembershipID: req.Msg.MembershipID,
		Now:          s.now(),
	})
	return respond(res), nil
}

// ToggleVacationStatus flips a participation between active and vacation.
func (s *LifecycleService) ToggleVacationStatus(ctx context.Context, req *connect.Request[circlesv1.ToggleVacationStatusRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("ToggleVacationStatus request received", "participation_id", req.Msg.ParticipationID)

	res := s.orch.ToggleVacationStatus(ctx, lifecycle.ToggleVacationInput{
		ParticipationID: req.Msg.ParticipationID,
		Now:             s.now(),
	})
	return respond(res), nil
}

// ScheduleMeeting creates a meeting and enrolls active members.
func (s *LifecycleService) ScheduleMeeting(ctx context.Context, req *connect.Request[circlesv1.ScheduleMeetingRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("ScheduleMeeting request received", "circle_id", req.Msg.CircleID, "start_time", req.Msg.StartTime)

	res := s.orch.ScheduleMeeting(ctx, lifecycle.ScheduleMeetingInput{
		CircleID:  req.Msg.CircleID,
		StartTime: req.Msg.StartTime,
		EndTime:   req.Msg.EndTime,
		Now:       s.now(),
	})
	return respond(res), nil
}

// RecordPayment stores a captured payment.
func (s *LifecycleService) RecordPayment(ctx context.Context, req *connect.Request[circlesv1.RecordPaymentRequest]) (*connect.Response[circlesv1.OperationResponse], error) {
	slog.Info("RecordPayment request received", "participation_id", req.Msg.ParticipationID, "amount", req.Msg.Amount)

	res := s.orch.RecordPayment(ctx, lifecycle.RecordPaymentInput{
		ParticipationID: req.Msg.ParticipationID,
		Amount:          req.Msg.Amount,
		Now:             s.now(),
	})
	return respond(res), nil
}

// GetMembership returns a membership with its balances.
func (s *LifecycleService) GetMembership(ctx context.Context, req *connect.Request[circlesv1.GetMembershipRequest]) (*connect.Response[circlesv1.GetMembershipResponse], error) {
	slog.Info("GetMembership request received", "membership_id", req.Msg.MembershipID)

	view, res := s.orch.GetMembership(ctx, req.Msg.MembershipID)
	out := &circlesv1.GetMembershipResponse{Result: toResult(res)}
	if view != nil {
		m := view.Membership
		out.Membership = &circlesv1.Membership{
			ID:           m.ID,
			UserID:       m.UserID,
			CircleID:     m.CircleID,
			Status:       string(m.Status),
			VacationDays: m.VacationDays,
			CreatedAt:    m.CreatedAt,
			UpdatedAt:    m.UpdatedAt,
		}
		out.Balances = toBalances(view.Balances)
	}
	return connect.NewResponse(out), nil
}

// ListBalances returns the balances of a membership.
func (s *LifecycleService) ListBalances(ctx context.Context, req *connect.Request[circlesv1.ListBalancesRequest]) (*connect.Response[circlesv1.ListBalancesResponse], error) {
	slog.Info("ListBalances request received", "membership_id", req.Msg.MembershipID)

	balances, res := s.orch.ListBalances(ctx, req.Msg.MembershipID)
	return connect.NewResponse(&circlesv1.ListBalancesResponse{
		Result:   toResult(res),
		Balances: toBalances(balances),
	}), nil
}

func toBalances(list []models.Balance) []circlesv1.Balance {
	out := make([]circlesv1.Balance, len(list))
	for i, b := range list {
		out[i] = circlesv1.Balance{Currency: b.Currency, Amount: b.Amount}
	}
	return out
}
