package circlesv1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LifecycleServiceName is the fully-qualified name of the service.
const LifecycleServiceName = "circles.v1.LifecycleService"

// Procedure paths.
const (
	LifecycleServiceCreateCircleProcedure         = "/circles.v1.LifecycleService/CreateCircle"
	LifecycleServiceInviteMemberProcedure         = "/circles.v1.LifecycleService/InviteMember"
	LifecycleServiceRemoveMembershipProcedure     = "/circles.v1.LifecycleService/RemoveMembership"
	LifecycleServiceRestoreMembershipProcedure    = "/circles.v1.LifecycleService/RestoreMembership"
	LifecycleServiceAcceptMembershipProcedure     = "/circles.v1.LifecycleService/AcceptMembership"
	LifecycleServiceLeaveCircleProcedure          = "/circles.v1.LifecycleService/LeaveCircle"
	LifecycleServiceToggleVacationStatusProcedure = "/circles.v1.LifecycleService/ToggleVacationStatus"
	LifecycleServiceScheduleMeetingProcedure      = "/circles.v1.LifecycleService/ScheduleMeeting"
	LifecycleServiceRecordPaymentProcedure        = "/circles.v1.LifecycleService/RecordPayment"
	LifecycleServiceGetMembershipProcedure        = "/circles.v1.LifecycleService/GetMembership"
	LifecycleServiceListBalancesProcedure         = "/circles.v1.LifecycleService/ListBalances"
)

// LifecycleServiceHandler is implemented by the server.
type LifecycleServiceHandler interface {
	CreateCircle(context.Context, *connect.Request[CreateCircleRequest]) (*connect.Response[OperationResponse], error)
	InviteMember(context.Context, *connect.Request[InviteMemberRequest]) (*connect.Response[OperationResponse], error)
	RemoveMembership(context.Context, *connect.Request[RemoveMembershipRequest]) (*connect.Response[OperationResponse], error)
	RestoreMembership(context.Context, *connect.Request[RestoreMembershipRequest]) (*connect.Response[OperationResponse], error)
	AcceptMembership(context.Context, *connect.Request[AcceptMembershipRequest]) (*connect.Response[OperationResponse], error)
	LeaveCircle(context.Context, *connect.Request[LeaveCircleRequest]) (*connect.Response[OperationResponse], error)
	ToggleVacationStatus(context.Context, *connect.Request[ToggleVacationStatusRequest]) (*connect.Response[OperationResponse], error)
	ScheduleMeeting(context.Context, *connect.Request[ScheduleMeetingRequest]) (*connect.Response[OperationResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[OperationResponse], error)
	GetMembership(context.Context, *connect.Request[GetMembershipRequest]) (*connect.Response[GetMembershipResponse], error)
	ListBalances(context.Context, *connect.Request[ListBalancesRequest]) (*connect.Response[ListBalancesResponse], error)
}

// NewLifecycleServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewLifecycleServiceHandler(svc LifecycleServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(LifecycleServiceCreateCircleProcedure, connect.NewUnaryHandler(LifecycleServiceCreateCircleProcedure, svc.CreateCircle, opts...))
	mux.Handle(LifecycleServiceInviteMemberProcedure, connect.NewUnaryHandler(LifecycleServiceInviteMemberProcedure, svc.InviteMember, opts...))
	mux.Handle(LifecycleServiceRemoveMembershipProcedure, connect.NewUnaryHandler(LifecycleServiceRemoveMembershipProcedure, svc.RemoveMembership, opts...))
	mux.Handle(LifecycleServiceRestoreMembershipProcedure, connect.NewUnaryHandler(LifecycleServiceRestoreMembershipProcedure, svc.RestoreMembership, opts...))
	mux.Handle(LifecycleServiceAcceptMembershipProcedure, connect.NewUnaryHandler(LifecycleServiceAcceptMembershipProcedure, svc.AcceptMembership, opts...))
	mux.Handle(LifecycleServiceLeaveCircleProcedure, connect.NewUnaryHandler(LifecycleServiceLeaveCircleProcedure, svc.LeaveCircle, opts...))
	mux.Handle(LifecycleServiceToggleVacationStatusProcedure, connect.NewUnaryHandler(LifecycleServiceToggleVacationStatusProcedure, svc.ToggleVacationStatus, opts...))
	mux.Handle(LifecycleServiceScheduleMeetingProcedure, connect.NewUnaryHandler(LifecycleServiceScheduleMeetingProcedure, svc.ScheduleMeeting, opts...))
	mux.Handle(LifecycleServiceRecordPaymentProcedure, connect.NewUnaryHandler(LifecycleServiceRecordPaymentProcedure, svc.RecordPayment, opts...))
	mux.Handle(LifecycleServiceGetMembershipProcedure, connect.NewUnaryHandler(LifecycleServiceGetMembershipProcedure, svc.GetMembership, opts...))
	mux.Handle(LifecycleServiceListBalancesProcedure, connect.NewUnaryHandler(LifecycleServiceListBalancesProcedure, svc.ListBalances, opts...))

	return "/" + LifecycleServiceName + "/", mux
}

// LifecycleServiceClient calls a remote LifecycleService.
type LifecycleServiceClient struct {
	createCircle         *connect.Client[CreateCircleRequest, OperationResponse]
	inviteMember         *connect.Client[InviteMemberRequest, OperationResponse]
	removeMembership     *connect.Client[RemoveMembershipRequest, OperationResponse]
	restoreMembership    *connect.Client[RestoreMembershipRequest, OperationResponse]
	acceptMembership     *connect.Client[AcceptMembershipRequest, OperationResponse]
	leaveCircle          *connect.Client[LeaveCircleRequest, OperationResponse]
	toggleVacationStatus *connect.Client[ToggleVacationStatusRequest, OperationResponse]
	scheduleMeeting      *connect.Client[ScheduleMeetingRequest, OperationResponse]
	recordPayment        *connect.Client[RecordPaymentRequest, OperationResponse]
	getMembership        *connect.Client[GetMembershipRequest, GetMembershipResponse]
	listBalances         *connect.Client[ListBalancesRequest, ListBalancesResponse]
}

// NewLifecycleServiceClient creates a client for the service at baseURL,
// e.g. http://localhost:8080.
func NewLifecycleServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LifecycleServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &LifecycleServiceClient{
		createCircle:         connect.NewClient[CreateCircleRequest, OperationResponse](httpClient, baseURL+LifecycleServiceCreateCircleProcedure, opts...),
		inviteMember:         connect.NewClient[InviteMemberRequest, OperationResponse](httpClient, baseURL+LifecycleServiceInviteMemberProcedure, opts...),
		removeMembership:     connect.NewClient[RemoveMembershipRequest, OperationResponse](httpClient, baseURL+LifecycleServiceRemoveMembershipProcedure, opts...),
		restoreMembership:    connect.NewClient[RestoreMembershipRequest, OperationResponse](httpClient, baseURL+LifecycleServiceRestoreMembershipProcedure, opts...),
		acceptMembership:     connect.NewClient[AcceptMembershipRequest, OperationResponse](httpClient, baseURL+LifecycleServiceAcceptMembershipProcedure, opts...),
		leaveCircle:          connect.NewClient[LeaveCircleRequest, OperationResponse](httpClient, baseURL+LifecycleServiceLeaveCircleProcedure, opts...),
		toggleVacationStatus: connect.NewClient[ToggleVacationStatusRequest, OperationResponse](httpClient, baseURL+LifecycleServiceToggleVacationStatusProcedure, opts...),
		scheduleMeeting:      connect.NewClient[ScheduleMeetingRequest, OperationResponse](httpClient, baseURL+LifecycleServiceScheduleMeetingProcedure, opts...),
		recordPayment:        connect.NewClient[RecordPaymentRequest, OperationResponse](httpClient, baseURL+LifecycleServiceRecordPaymentProcedure, opts...),
		getMembership:        connect.NewClient[GetMembershipRequest, GetMembershipResponse](httpClient, baseURL+LifecycleServiceGetMembershipProcedure, opts...),
		listBalances:         connect.NewClient[ListBalancesRequest, ListBalancesResponse](httpClient, baseURL+LifecycleServiceListBalancesProcedure, opts...),
	}
}

func (c *LifecycleServiceClient) CreateCircle(ctx context.Context, req *connect.Request[CreateCircleRequest]) (*connect.Response[OperationResponse], error) {
	return c.createCircle.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) InviteMember(ctx context.Context, req *connect.Request[InviteMemberRequest]) (*connect.Response[OperationResponse], error) {
	return c.inviteMember.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) RemoveMembership(ctx context.Context, req *connect.Request[RemoveMembershipRequest]) (*connect.Response[OperationResponse], error) {
	return c.removeMembership.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) RestoreMembership(ctx context.Context, req *connect.Request[RestoreMembershipRequest]) (*connect.Response[OperationResponse], error) {
	return c.restoreMembership.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) AcceptMembership(ctx context.Context, req *connect.Request[AcceptMembershipRequest]) (*connect.Response[OperationResponse], error) {
	return c.acceptMembership.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) LeaveCircle(ctx context.Context, req *connect.Request[LeaveCircleRequest]) (*connect.Response[OperationResponse], error) {
	return c.leaveCircle.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) ToggleVacationStatus(ctx context.Context, req *connect.Request[ToggleVacationStatusRequest]) (*connect.Response[OperationResponse], error) {
	return c.toggleVacationStatus.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) ScheduleMeeting(ctx context.Context, req *connect.Request[ScheduleMeetingRequest]) (*connect.Response[OperationResponse], error) {
	return c.scheduleMeeting.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[OperationResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) GetMembership(ctx context.Context, req *connect.Request[GetMembershipRequest]) (*connect.Response[GetMembershipResponse], error) {
	return c.getMembership.CallUnary(ctx, req)
}

func (c *LifecycleServiceClient) ListBalances(ctx context.Context, req *connect.Request[ListBalancesRequest]) (*connect.Response[ListBalancesResponse], error) {
	return c.listBalances.CallUnary(ctx, req)
}
