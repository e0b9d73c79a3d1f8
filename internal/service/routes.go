package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// ServiceName is the fully qualified RPC service name; procedures live
// under /verdant.v1.VerdantService/<Method>.
const ServiceName = "verdant.v1.VerdantService"

const (
	ProcedureCategorizeTransaction = "/" + ServiceName + "/CategorizeTransaction"
	ProcedureAddTransaction        = "/" + ServiceName + "/AddTransaction"
	ProcedureUpdateTransaction     = "/" + ServiceName + "/UpdateTransaction"
	ProcedureDeleteTransaction     = "/" + ServiceName + "/DeleteTransaction"
	ProcedureListTransactions      = "/" + ServiceName + "/ListTransactions"
	ProcedureGetProfile            = "/" + ServiceName + "/GetProfile"
	ProcedureUpdateProfile         = "/" + ServiceName + "/UpdateProfile"
	ProcedureBulkCategorize        = "/" + ServiceName + "/BulkCategorize"
	ProcedureBulkAddTransactions   = "/" + ServiceName + "/BulkAddTransactions"
	ProcedureGetInsights           = "/" + ServiceName + "/GetInsights"
	ProcedureAsk                   = "/" + ServiceName + "/Ask"
)

// NewHandler mounts every procedure on a mux and returns the path prefix to
// register it under, mirroring the generated-handler convention.
func NewHandler(s *VerdantService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSONCodec()}, opts...)

	mux := http.NewServeMux()
	handle(mux, ProcedureCategorizeTransaction, s.CategorizeTransaction, opts)
	handle(mux, ProcedureAddTransaction, s.AddTransaction, opts)
	handle(mux, ProcedureUpdateTransaction, s.UpdateTransaction, opts)
	handle(mux, ProcedureDeleteTransaction, s.DeleteTransaction, opts)
	handle(mux, ProcedureListTransactions, s.ListTransactions, opts)
	handle(mux, ProcedureGetProfile, s.GetProfile, opts)
	handle(mux, ProcedureUpdateProfile, s.UpdateProfile, opts)
	handle(mux, ProcedureBulkCategorize, s.BulkCategorize, opts)
	handle(mux, ProcedureBulkAddTransactions, s.BulkAddTransactions, opts)
	handle(mux, ProcedureGetInsights, s.GetInsights, opts)
	handle(mux, ProcedureAsk, s.Ask, opts)

	return "/" + ServiceName + "/", mux
}

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	unary func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, unary, opts...))
}
