package codec

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
	"github.com/dwhswenson/annotated-trajectories/internal/volume"
)

// #region service
// ClassifyMethod is the full gRPC method name of the remote classifier.
//
// The request is a Struct {"label": string, "frames": [[x0,y0,z0,x1,...], ...]}
// holding the flattened coordinates of each frame; the response is a ListValue
// with one bool per frame.
const ClassifyMethod = "/annotraj.v1.ClassifierService/Classify"

// ClassifierServiceClient is the client API of the remote classifier service.
type ClassifierServiceClient interface {
	Classify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error)
}

type classifierServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewClassifierServiceClient wraps a connection as a ClassifierServiceClient.
func NewClassifierServiceClient(cc grpc.ClientConnInterface) ClassifierServiceClient {
	return &classifierServiceClient{cc: cc}
}

func (c *classifierServiceClient) Classify(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ClassifyMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service

// #region client-struct
// ClassifierClient asks a remote service which frames belong to a state.
type ClassifierClient struct {
	conn        *grpc.ClientConn
	client      ClassifierServiceClient
	concurrency int
	logger      *slog.Logger
}

// #endregion client-struct

// #region constructor
// NewClassifierClient connects to the classifier gRPC server.
func NewClassifierClient(addr string) (*ClassifierClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &ClassifierClient{
		conn:        conn,
		client:      NewClassifierServiceClient(conn),
		concurrency: 4,
		logger:      slog.Default(),
	}, nil
}

// NewClassifierClientWithService creates a ClassifierClient with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewClassifierClientWithService(svc ClassifierServiceClient) *ClassifierClient {
	return &ClassifierClient{client: svc, concurrency: 4, logger: slog.Default()}
}

// WithConcurrency limits how many labels Volumes classifies at once.
func (c *ClassifierClient) WithConcurrency(n int) *ClassifierClient {
	if n > 0 {
		c.concurrency = n
	}
	return c
}

// WithLogger sets the logger.
func (c *ClassifierClient) WithLogger(l *slog.Logger) *ClassifierClient {
	if l != nil {
		c.logger = l
	}
	return c
}

// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *ClassifierClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion close

// #region classify
// Classify returns, for each frame of traj, whether the service puts it in label.
func (c *ClassifierClient) Classify(ctx context.Context, label string, traj *trajectory.Trajectory) ([]bool, error) {
	req, err := buildRequest(label, traj)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Classify(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("classify rpc %s: %w", label, err)
	}

	values := resp.GetValues()
	if len(values) != traj.Len() {
		return nil, fmt.Errorf("classify %s: got %d results for %d frames", label, len(values), traj.Len())
	}
	mask := make([]bool, len(values))
	for i, v := range values {
		b, ok := v.GetKind().(*structpb.Value_BoolValue)
		if !ok {
			return nil, fmt.Errorf("classify %s: result %d is not a bool", label, i)
		}
		mask[i] = b.BoolValue
	}
	return mask, nil
}

func buildRequest(label string, traj *trajectory.Trajectory) (*structpb.Struct, error) {
	frames := make([]any, traj.Len())
	for i := range frames {
		s := traj.At(i)
		flat := make([]any, 0, 3*s.NAtoms())
		for _, xyz := range s.Coordinates {
			flat = append(flat, xyz[0], xyz[1], xyz[2])
		}
		frames[i] = flat
	}
	req, err := structpb.NewStruct(map[string]any{
		"label":  label,
		"frames": frames,
	})
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	return req, nil
}

// #endregion classify

// #region volumes
// Volume classifies traj for label and returns the result as a volume.
func (c *ClassifierClient) Volume(ctx context.Context, label string, traj *trajectory.Trajectory) (volume.Volume, error) {
	mask, err := c.Classify(ctx, label, traj)
	if err != nil {
		return nil, err
	}
	return volume.FromMask(traj, mask)
}

// Volumes classifies traj for every label concurrently. The first failure
// cancels the remaining calls.
func (c *ClassifierClient) Volumes(ctx context.Context, labels []string, traj *trajectory.Trajectory) (map[string]volume.Volume, error) {
	var mu sync.Mutex
	out := make(map[string]volume.Volume, len(labels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, label := range labels {
		g.Go(func() error {
			vol, err := c.Volume(gctx, label, traj)
			if err != nil {
				return err
			}
			c.logger.Debug("classified state", "label", label, "frames", traj.Len())
			mu.Lock()
			out[label] = vol
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion volumes
