package codec

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dwhswenson/annotated-trajectories/internal/trajectory"
)

// #region mock
type mockClassifierService struct {
	resp  *structpb.ListValue
	err   error
	calls atomic.Int32
	last  *structpb.Struct
}

func (m *mockClassifierService) Classify(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.ListValue, error) {
	m.calls.Add(1)
	m.last = in
	return m.resp, m.err
}

func boolList(vals ...bool) *structpb.ListValue {
	out := &structpb.ListValue{}
	for _, v := range vals {
		out.Values = append(out.Values, structpb.NewBoolValue(v))
	}
	return out
}

// #endregion mock

// #region constructor-tests
func TestNewClassifierClientInvalidAddr(t *testing.T) {
	client, err := NewClassifierClient("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer client.Close()
}

func TestNewClassifierClientWithService(t *testing.T) {
	c := NewClassifierClientWithService(&mockClassifierService{})
	if c == nil || c.client == nil {
		t.Fatal("expected non-nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close without connection: %v", err)
	}
	if c.WithConcurrency(0).concurrency != 4 {
		t.Fatal("expected non-positive concurrency to be ignored")
	}
	if c.WithConcurrency(2).concurrency != 2 {
		t.Fatal("expected concurrency 2")
	}
	if c.WithLogger(nil).logger == nil {
		t.Fatal("expected default logger to be kept")
	}
}

// #endregion constructor-tests

// #region classify-tests
func TestClassify_Success(t *testing.T) {
	mock := &mockClassifierService{resp: boolList(false, true, true)}
	c := NewClassifierClientWithService(mock)
	traj := trajectory.OneD([]float64{-1, 1, 4})

	mask, err := c.Classify(context.Background(), "1-digit", traj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mask) != 3 || mask[0] || !mask[1] || !mask[2] {
		t.Fatalf("unexpected mask %v", mask)
	}

	if got := mock.last.GetFields()["label"].GetStringValue(); got != "1-digit" {
		t.Errorf("expected label 1-digit in request, got %q", got)
	}
	frames := mock.last.GetFields()["frames"].GetListValue().GetValues()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames in request, got %d", len(frames))
	}
	coords := frames[2].GetListValue().GetValues()
	if len(coords) != 3 || coords[0].GetNumberValue() != 4 {
		t.Errorf("expected flattened coordinates [4 0 0], got %v", coords)
	}
}

func TestClassify_RPCError(t *testing.T) {
	c := NewClassifierClientWithService(&mockClassifierService{err: errors.New("unavailable")})

	_, err := c.Classify(context.Background(), "a", trajectory.OneD([]float64{1}))
	if err == nil || !strings.Contains(err.Error(), "classify rpc a") {
		t.Fatalf("expected wrapped rpc error, got %v", err)
	}
}

func TestClassify_WrongLength(t *testing.T) {
	c := NewClassifierClientWithService(&mockClassifierService{resp: boolList(true)})

	if _, err := c.Classify(context.Background(), "a", trajectory.OneD([]float64{1, 2})); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestClassify_NonBool(t *testing.T) {
	resp := &structpb.ListValue{Values: []*structpb.Value{structpb.NewNumberValue(1)}}
	c := NewClassifierClientWithService(&mockClassifierService{resp: resp})

	if _, err := c.Classify(context.Background(), "a", trajectory.OneD([]float64{1})); err == nil {
		t.Fatal("expected non-bool error")
	}
}

func TestVolume(t *testing.T) {
	c := NewClassifierClientWithService(&mockClassifierService{resp: boolList(true, false)})
	traj := trajectory.OneD([]float64{1, 2})

	vol, err := c.Volume(context.Background(), "a", traj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !vol.Contains(traj.At(0)) || vol.Contains(traj.At(1)) {
		t.Fatal("volume does not match classification")
	}
}

func TestVolumes_Error(t *testing.T) {
	mock := &mockClassifierService{err: errors.New("boom")}
	c := NewClassifierClientWithService(mock)

	_, err := c.Volumes(context.Background(), []string{"a", "b"}, trajectory.OneD([]float64{1}))
	if err == nil {
		t.Fatal("expected error")
	}
}

// #endregion classify-tests

// #region bufconn
type classifierServer interface {
	Classify(context.Context, *structpb.Struct) (*structpb.ListValue, error)
}

var classifierServiceDesc = grpc.ServiceDesc{
	ServiceName: "annotraj.v1.ClassifierService",
	HandlerType: (*classifierServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Classify",
		Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			return srv.(classifierServer).Classify(ctx, in)
		},
	}},
}

// thresholdServer puts frames with x below 10 in "low" and the rest in "high".
type thresholdServer struct{}

func (thresholdServer) Classify(_ context.Context, in *structpb.Struct) (*structpb.ListValue, error) {
	label := in.GetFields()["label"].GetStringValue()
	if label != "low" && label != "high" {
		return nil, status.Errorf(codes.NotFound, "unknown state %q", label)
	}
	out := &structpb.ListValue{}
	for _, f := range in.GetFields()["frames"].GetListValue().GetValues() {
		x := f.GetListValue().GetValues()[0].GetNumberValue()
		out.Values = append(out.Values, structpb.NewBoolValue((x < 10) == (label == "low")))
	}
	return out, nil
}

func bufconnClient(t *testing.T) *ClassifierClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&classifierServiceDesc, thresholdServer{})
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewClassifierClientWithService(NewClassifierServiceClient(conn))
}

func TestVolumes_OverGRPC(t *testing.T) {
	c := bufconnClient(t).WithConcurrency(2)
	traj := trajectory.OneD([]float64{1, 22, 3, 44})

	vols, err := c.Volumes(context.Background(), []string{"low", "high"}, traj)
	if err != nil {
		t.Fatalf("Volumes: %v", err)
	}
	if len(vols) != 2 {
		t.Fatalf("expected 2 volumes, got %d", len(vols))
	}
	for i, wantLow := range []bool{true, false, true, false} {
		if vols["low"].Contains(traj.At(i)) != wantLow {
			t.Errorf("frame %d: low membership should be %v", i, wantLow)
		}
		if vols["high"].Contains(traj.At(i)) == wantLow {
			t.Errorf("frame %d: high membership should be %v", i, !wantLow)
		}
	}
}

func TestVolumes_OverGRPCUnknownLabel(t *testing.T) {
	c := bufconnClient(t)

	_, err := c.Volumes(context.Background(), []string{"low", "medium"}, trajectory.OneD([]float64{1}))
	if status.Code(errors.Unwrap(err)) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

// #endregion bufconn
