package wire

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC service path segment used for the worker
// session stream, mirroring original_source/master/src/grpc.rs's
// WorkerService.
const ServiceName = "judgecluster.WorkerService"

// WorkerServiceServer is implemented by the master to handle worker
// connections.
type WorkerServiceServer interface {
	// Session handles one worker's long-lived bidirectional stream:
	// Register, then interleaved Heartbeat/CompileResult/BatchResult in,
	// CompileTask/ExecuteBatchTask out.
	Session(stream WorkerService_SessionServer) error
}

// WorkerService_SessionServer is the master-side handle to one worker's
// stream.
type WorkerService_SessionServer interface {
	Send(*MasterCommand) error
	Recv() (*WorkerMessage, error)
	grpc.ServerStream
}

type workerServiceSessionServer struct {
	grpc.ServerStream
}

func (x *workerServiceSessionServer) Send(m *MasterCommand) error {
	return x.ServerStream.SendMsg(m)
}

func (x *workerServiceSessionServer) Recv() (*WorkerMessage, error) {
	m := new(WorkerMessage)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _WorkerService_Session_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(WorkerServiceServer).Session(&workerServiceSessionServer{stream})
}

// ServiceDesc is the hand-declared equivalent of what protoc-gen-go-grpc
// would emit for a single bidirectional-streaming RPC named "Session".
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkerServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Session",
			Handler:       _WorkerService_Session_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "judgecluster/worker_service",
}

// RegisterWorkerServiceServer registers srv on s.
func RegisterWorkerServiceServer(s *grpc.Server, srv WorkerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// WorkerServiceClient is implemented by the worker to open a session to
// the master.
type WorkerServiceClient interface {
	Session(ctx context.Context, opts ...grpc.CallOption) (WorkerService_SessionClient, error)
}

type workerServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewWorkerServiceClient wraps a dialed connection.
func NewWorkerServiceClient(cc grpc.ClientConnInterface) WorkerServiceClient {
	return &workerServiceClient{cc: cc}
}

func (c *workerServiceClient) Session(ctx context.Context, opts ...grpc.CallOption) (WorkerService_SessionClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/Session", opts...)
	if err != nil {
		return nil, err
	}
	return &workerServiceSessionClient{stream}, nil
}

// WorkerService_SessionClient is the worker-side handle to its own stream.
type WorkerService_SessionClient interface {
	Send(*WorkerMessage) error
	Recv() (*MasterCommand, error)
	grpc.ClientStream
}

type workerServiceSessionClient struct {
	grpc.ClientStream
}

func (x *workerServiceSessionClient) Send(m *WorkerMessage) error {
	return x.ClientStream.SendMsg(m)
}

func (x *workerServiceSessionClient) Recv() (*MasterCommand, error) {
	m := new(MasterCommand)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
