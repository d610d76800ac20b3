//go:build protogen

package catalog

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/citizengate/citizengate/libs/grpcx"
	directoryv1 "github.com/citizengate/citizengate/protos/gen/directory/v1"
)

type grpcProvider struct {
	client directoryv1.DirectoryServiceClient
}

func NewGRPCProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: directoryv1.NewDirectoryServiceClient(conn)}, nil
}

func (p *grpcProvider) GetTemplate(ctx context.Context, availabilityID string) (Template, error) {
	resp, err := p.client.GetAvailability(ctx, &directoryv1.GetAvailabilityRequest{
		AvailabilityId: availabilityID,
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Template{}, ErrNotFound
		}
		return Template{}, err
	}
	return templateFromProto(resp.GetTemplate()), nil
}

func (p *grpcProvider) ListTemplates(ctx context.Context, serviceID string) ([]Template, error) {
	resp, err := p.client.ListAvailability(ctx, &directoryv1.ListAvailabilityRequest{
		ServiceId: serviceID,
	})
	if err != nil {
		return nil, err
	}
	tmpls := make([]Template, 0, len(resp.GetTemplates()))
	for _, t := range resp.GetTemplates() {
		tmpls = append(tmpls, templateFromProto(t))
	}
	return tmpls, nil
}

func templateFromProto(t *directoryv1.AvailabilityTemplate) Template {
	if t == nil {
		return Template{}
	}
	return Template{
		AvailabilityID:  t.GetAvailabilityId(),
		ServiceID:       t.GetServiceId(),
		DayOfWeek:       t.GetDayOfWeek(),
		StartTime:       t.GetStartTime(),
		EndTime:         t.GetEndTime(),
		DurationMinutes: int(t.GetDurationMinutes()),
	}
}
