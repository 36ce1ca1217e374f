package grpcserver

import (
	"context"
	"log"

	"talos/api/wire"
	"talos/domain/orderbook"
	"talos/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// EngineServer is the engine's RPC surface. Clients must select the
// wire codec with grpc.CallContentSubtype(wire.Name).
type EngineServer interface {
	PlaceOrder(context.Context, *wire.PlaceOrderRequest) (*wire.PlaceOrderResponse, error)
	CancelOrder(context.Context, *wire.CancelOrderRequest) (*wire.CancelOrderResponse, error)
	GetQuote(context.Context, *wire.GetQuoteRequest) (*wire.GetQuoteResponse, error)
	GetSnapshot(context.Context, *wire.GetSnapshotRequest) (*wire.GetSnapshotResponse, error)
}

// Server adapts OrderService to gRPC.
type Server struct {
	svc *service.OrderService
}

func NewServer(svc *service.OrderService) *Server {
	return &Server{svc: svc}
}

// -------------------- Commands --------------------

func (s *Server) PlaceOrder(ctx context.Context, req *wire.PlaceOrderRequest) (*wire.PlaceOrderResponse, error) {
	if req.Qty <= 0 {
		return nil, status.Error(codes.InvalidArgument, "qty must be positive")
	}
	if req.Type != uint32(orderbook.Market) && req.Price <= 0 {
		return nil, status.Error(codes.InvalidArgument, "price must be positive")
	}

	res, err := s.svc.PlaceOrder(wire.PlaceCommand{
		OrderID:  req.OrderID,
		Side:     req.Side,
		Type:     req.Type,
		Price:    req.Price,
		Qty:      req.Qty,
		ExpireAt: req.ExpireAt,
	})
	if err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}

	log.Printf("[grpc] PlaceOrder id=%d side=%d type=%d price=%d qty=%d seq=%d",
		req.OrderID, req.Side, req.Type, req.Price, req.Qty, res.Seq)

	return &wire.PlaceOrderResponse{
		Seq:       res.Seq,
		Filled:    res.Filled,
		Remaining: res.Remaining,
		Rested:    res.Rested,
	}, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *wire.CancelOrderRequest) (*wire.CancelOrderResponse, error) {
	seq, err := s.svc.CancelOrder(req.OrderID)
	if err == service.ErrUnknownOrder {
		return nil, status.Error(codes.NotFound, "order not found")
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &wire.CancelOrderResponse{Seq: seq, Cancelled: true}, nil
}

// -------------------- Queries --------------------

func (s *Server) GetQuote(ctx context.Context, req *wire.GetQuoteRequest) (*wire.GetQuoteResponse, error) {
	q := s.svc.GetQuote(req.Price)

	resp := &wire.GetQuoteResponse{}
	fill := func(dst *wire.QuoteLevel, lvl *orderbook.PriceLevel) {
		if lvl == nil {
			return
		}
		dst.Price = lvl.Price
		dst.Qty = lvl.TotalQty
		dst.Found = true
	}
	fill(&resp.BestBid, q.BestBid)
	fill(&resp.BestAsk, q.BestAsk)
	fill(&resp.NearestBid, q.NearestBid)
	fill(&resp.NearestAsk, q.NearestAsk)
	return resp, nil
}

func (s *Server) GetSnapshot(ctx context.Context, req *wire.GetSnapshotRequest) (*wire.GetSnapshotResponse, error) {
	seq, orders := s.svc.Snapshot()
	return &wire.GetSnapshotResponse{Seq: seq, Orders: orders}, nil
}

// -------------------- Wiring --------------------

// The descriptor below is maintained by hand against
// api/proto/engine.proto; keep the two in sync.

func RegisterEngineServer(s grpc.ServiceRegistrar, srv EngineServer) {
	s.RegisterService(&EngineServiceDesc, srv)
}

var EngineServiceDesc = grpc.ServiceDesc{
	ServiceName: "talos.Engine",
	HandlerType: (*EngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "CancelOrder", Handler: cancelOrderHandler},
		{MethodName: "GetQuote", Handler: getQuoteHandler},
		{MethodName: "GetSnapshot", Handler: getSnapshotHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/proto/engine.proto",
}

func placeOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.PlaceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/talos.Engine/PlaceOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).PlaceOrder(ctx, req.(*wire.PlaceOrderRequest))
	})
}

func cancelOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.CancelOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/talos.Engine/CancelOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).CancelOrder(ctx, req.(*wire.CancelOrderRequest))
	})
}

func getQuoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.GetQuoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetQuote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/talos.Engine/GetQuote"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetQuote(ctx, req.(*wire.GetQuoteRequest))
	})
}

func getSnapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wire.GetSnapshotRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EngineServer).GetSnapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/talos.Engine/GetSnapshot"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(EngineServer).GetSnapshot(ctx, req.(*wire.GetSnapshotRequest))
	})
}
