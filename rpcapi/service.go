package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// QRLAPIServer is the server-side interface for the §6 gRPC surface.
type QRLAPIServer interface {
	GetKnownPeers(context.Context, *GetKnownPeersRequest) (*GetKnownPeersResponse, error)
	GetAddressState(context.Context, *GetAddressStateRequest) (*GetAddressStateResponse, error)
	TransferCoins(context.Context, *TransferCoinsRequest) (*TransferCoinsResponse, error)
	GetBlockMiningCompatible(context.Context, *GetBlockMiningCompatibleRequest) (*GetBlockMiningCompatibleResponse, error)
	GetBlockToMine(context.Context, *GetBlockToMineRequest) (*GetBlockToMineResponse, error)
	SubmitMinedBlock(context.Context, *SubmitMinedBlockRequest) (*SubmitMinedBlockResponse, error)
}

// QRLAPIClient is the client-side stub for the same surface.
type QRLAPIClient interface {
	GetKnownPeers(ctx context.Context, in *GetKnownPeersRequest, opts ...grpc.CallOption) (*GetKnownPeersResponse, error)
	GetAddressState(ctx context.Context, in *GetAddressStateRequest, opts ...grpc.CallOption) (*GetAddressStateResponse, error)
	TransferCoins(ctx context.Context, in *TransferCoinsRequest, opts ...grpc.CallOption) (*TransferCoinsResponse, error)
	GetBlockMiningCompatible(ctx context.Context, in *GetBlockMiningCompatibleRequest, opts ...grpc.CallOption) (*GetBlockMiningCompatibleResponse, error)
	GetBlockToMine(ctx context.Context, in *GetBlockToMineRequest, opts ...grpc.CallOption) (*GetBlockToMineResponse, error)
	SubmitMinedBlock(ctx context.Context, in *SubmitMinedBlockRequest, opts ...grpc.CallOption) (*SubmitMinedBlockResponse, error)
}

type qrlAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewQRLAPIClient wraps an existing connection (as produced by
// grpc.Dial) with the QRLAPIClient stub.
func NewQRLAPIClient(cc grpc.ClientConnInterface) QRLAPIClient {
	return &qrlAPIClient{cc: cc}
}

func (c *qrlAPIClient) GetKnownPeers(ctx context.Context, in *GetKnownPeersRequest, opts ...grpc.CallOption) (*GetKnownPeersResponse, error) {
	out := new(GetKnownPeersResponse)
	if err := c.cc.Invoke(ctx, "/rpcapi.QRLAPI/GetKnownPeers", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *qrlAPIClient) GetAddressState(ctx context.Context, in *GetAddressStateRequest, opts ...grpc.CallOption) (*GetAddressStateResponse, error) {
	out := new(GetAddressStateResponse)
	if err := c.cc.Invoke(ctx, "/rpcapi.QRLAPI/GetAddressState", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *qrlAPIClient) TransferCoins(ctx context.Context, in *TransferCoinsRequest, opts ...grpc.CallOption) (*TransferCoinsResponse, error) {
	out := new(TransferCoinsResponse)
	if err := c.cc.Invoke(ctx, "/rpcapi.QRLAPI/TransferCoins", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *qrlAPIClient) GetBlockMiningCompatible(ctx context.Context, in *GetBlockMiningCompatibleRequest, opts ...grpc.CallOption) (*GetBlockMiningCompatibleResponse, error) {
	out := new(GetBlockMiningCompatibleResponse)
	if err := c.cc.Invoke(ctx, "/rpcapi.QRLAPI/GetBlockMiningCompatible", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *qrlAPIClient) GetBlockToMine(ctx context.Context, in *GetBlockToMineRequest, opts ...grpc.CallOption) (*GetBlockToMineResponse, error) {
	out := new(GetBlockToMineResponse)
	if err := c.cc.Invoke(ctx, "/rpcapi.QRLAPI/GetBlockToMine", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *qrlAPIClient) SubmitMinedBlock(ctx context.Context, in *SubmitMinedBlockRequest, opts ...grpc.CallOption) (*SubmitMinedBlockResponse, error) {
	out := new(SubmitMinedBlockResponse)
	if err := c.cc.Invoke(ctx, "/rpcapi.QRLAPI/SubmitMinedBlock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegisterQRLAPIServer registers srv's implementation of the §6 surface
// on s, in the shape of protoc-gen-go-grpc's generated registration
// function.
func RegisterQRLAPIServer(s *grpc.Server, srv QRLAPIServer) {
	s.RegisterService(&qrlAPIServiceDesc, srv)
}

func handlerGetKnownPeers(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetKnownPeersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QRLAPIServer).GetKnownPeers(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rpcapi.QRLAPI/GetKnownPeers"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QRLAPIServer).GetKnownPeers(ctx, req.(*GetKnownPeersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerGetAddressState(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetAddressStateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QRLAPIServer).GetAddressState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rpcapi.QRLAPI/GetAddressState"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QRLAPIServer).GetAddressState(ctx, req.(*GetAddressStateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerTransferCoins(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(TransferCoinsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QRLAPIServer).TransferCoins(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rpcapi.QRLAPI/TransferCoins"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QRLAPIServer).TransferCoins(ctx, req.(*TransferCoinsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerGetBlockMiningCompatible(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBlockMiningCompatibleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QRLAPIServer).GetBlockMiningCompatible(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rpcapi.QRLAPI/GetBlockMiningCompatible"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QRLAPIServer).GetBlockMiningCompatible(ctx, req.(*GetBlockMiningCompatibleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerGetBlockToMine(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetBlockToMineRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QRLAPIServer).GetBlockToMine(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rpcapi.QRLAPI/GetBlockToMine"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QRLAPIServer).GetBlockToMine(ctx, req.(*GetBlockToMineRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handlerSubmitMinedBlock(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitMinedBlockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QRLAPIServer).SubmitMinedBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/rpcapi.QRLAPI/SubmitMinedBlock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QRLAPIServer).SubmitMinedBlock(ctx, req.(*SubmitMinedBlockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var qrlAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: "rpcapi.QRLAPI",
	HandlerType: (*QRLAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetKnownPeers", Handler: handlerGetKnownPeers},
		{MethodName: "GetAddressState", Handler: handlerGetAddressState},
		{MethodName: "TransferCoins", Handler: handlerTransferCoins},
		{MethodName: "GetBlockMiningCompatible", Handler: handlerGetBlockMiningCompatible},
		{MethodName: "GetBlockToMine", Handler: handlerGetBlockToMine},
		{MethodName: "SubmitMinedBlock", Handler: handlerSubmitMinedBlock},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rpcapi.proto",
}
