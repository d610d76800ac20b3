//go:build protogen

package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	directoryv1 "github.com/citizengate/citizengate/protos/gen/directory/v1"
	"github.com/citizengate/citizengate/services/directory-service/internal/model"
	"github.com/citizengate/citizengate/services/directory-service/internal/storage"
)

type server struct {
	directoryv1.UnimplementedDirectoryServiceServer
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, repo *storage.Repository) {
	directoryv1.RegisterDirectoryServiceServer(grpcServer, &server{repo: repo})
}

func (s *server) GetAvailability(ctx context.Context, req *directoryv1.GetAvailabilityRequest) (*directoryv1.GetAvailabilityResponse, error) {
	if req.GetAvailabilityId() == "" {
		return nil, status.Error(codes.InvalidArgument, "availability_id required")
	}
	a, err := s.repo.GetAvailability(ctx, req.GetAvailabilityId())
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, status.Error(codes.NotFound, "availability not found")
		}
		return nil, status.Error(codes.Internal, "availability lookup failed")
	}
	return &directoryv1.GetAvailabilityResponse{Template: templateToProto(a)}, nil
}

func (s *server) ListAvailability(ctx context.Context, req *directoryv1.ListAvailabilityRequest) (*directoryv1.ListAvailabilityResponse, error) {
	if req.GetServiceId() == "" {
		return nil, status.Error(codes.InvalidArgument, "service_id required")
	}
	templates, err := s.repo.ListAvailability(ctx, req.GetServiceId())
	if err != nil {
		return nil, status.Error(codes.Internal, "availability listing failed")
	}
	resp := &directoryv1.ListAvailabilityResponse{}
	for _, a := range templates {
		resp.Templates = append(resp.Templates, templateToProto(a))
	}
	return resp, nil
}

func templateToProto(a model.Availability) *directoryv1.AvailabilityTemplate {
	return &directoryv1.AvailabilityTemplate{
		AvailabilityId:  a.AvailabilityID,
		ServiceId:       a.ServiceID,
		DayOfWeek:       a.DayOfWeek,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		DurationMinutes: int32(a.DurationMinutes),
	}
}
