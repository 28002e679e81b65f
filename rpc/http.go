package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pharmanet/core/events"
	"pharmanet/ledger"
	"pharmanet/native/common"
	"pharmanet/native/drug"
	"pharmanet/native/order"
	"pharmanet/native/registry"
	"pharmanet/native/retail"
	"pharmanet/native/shipment"
	"pharmanet/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNotFound       = -32040
	codeDuplicate      = -32041
	codeValidation     = -32042
)

// Server exposes the transaction logic over JSON-RPC 2.0. Every invocation
// runs inside one ledger transaction: reads, validation, then an atomic batch
// of writes, or nothing at all.
type Server struct {
	store   *ledger.Store
	log     *slog.Logger
	emitter events.Emitter
	nowFn   func() int64
}

// NewServer constructs a server over the supplied ledger store.
func NewServer(store *ledger.Store, log *slog.Logger, emitter events.Emitter) *Server {
	if log == nil {
		log = slog.Default()
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Server{store: store, log: log, emitter: emitter}
}

// SetNowFunc overrides the time source used for deterministic testing.
func (s *Server) SetNowFunc(now func() int64) { s.nowFn = now }

// Router returns the HTTP handler: the RPC endpoint plus health and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rpc", s.handle)
	return r
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+req.Method)
		return
	}

	requestID := uuid.NewString()
	started := time.Now()
	result, err := handler(req.Params)
	duration := time.Since(started)

	kind := ""
	if err != nil {
		kind = errKind(err)
	}
	observability.ModuleMetrics().Observe(req.Method, duration, kind)

	if err != nil {
		s.log.Warn("operation failed",
			slog.String("requestId", requestID),
			slog.String("method", req.Method),
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		writeError(w, http.StatusOK, req.ID, errCode(err), err.Error())
		return
	}
	s.log.Info("operation completed",
		slog.String("requestId", requestID),
		slog.String("method", req.Method),
		slog.Duration("duration", duration),
	)
	writeResult(w, req.ID, result)
}

type methodFunc func(params []json.RawMessage) (interface{}, error)

func (s *Server) methods() map[string]methodFunc {
	return map[string]methodFunc{
		"pharma_registerCompany":      s.handleRegisterCompany,
		"pharma_lookupCompany":        s.handleLookupCompany,
		"pharma_addDrug":              s.handleAddDrug,
		"pharma_createPO":             s.handleCreatePO,
		"pharma_createShipment":       s.handleCreateShipment,
		"pharma_updateShipment":       s.handleUpdateShipment,
		"pharma_retailDrug":           s.handleRetailDrug,
		"pharma_viewDrugCurrentState": s.handleViewDrugCurrentState,
		"pharma_viewHistory":          s.handleViewHistory,
	}
}

var errInvalidParams = errors.New("rpc: invalid params")

func decodeParams(params []json.RawMessage, out interface{}) error {
	if len(params) != 1 {
		return errInvalidParams
	}
	if err := json.Unmarshal(params[0], out); err != nil {
		return errInvalidParams
	}
	return nil
}

func errCode(err error) int {
	switch {
	case errors.Is(err, errInvalidParams):
		return codeInvalidParams
	case isUnauthorized(err):
		return codeUnauthorized
	case isNotFound(err):
		return codeNotFound
	case isDuplicate(err):
		return codeDuplicate
	case isValidation(err):
		return codeValidation
	}
	return codeServerError
}

func errKind(err error) string {
	switch {
	case errors.Is(err, errInvalidParams):
		return "invalid_params"
	case isUnauthorized(err):
		return "unauthorized"
	case isNotFound(err):
		return "not_found"
	case isDuplicate(err):
		return "duplicate"
	case isValidation(err):
		return "validation"
	}
	return "internal"
}

func isUnauthorized(err error) bool {
	return errors.Is(err, common.ErrOperationNotPermitted) ||
		errors.Is(err, registry.ErrUnauthorizedCaller) ||
		errors.Is(err, drug.ErrUnauthorized) ||
		errors.Is(err, order.ErrUnauthorized) ||
		errors.Is(err, shipment.ErrUnauthorizedCreate) ||
		errors.Is(err, shipment.ErrUnauthorizedDeliver) ||
		errors.Is(err, retail.ErrUnauthorized)
}

func isNotFound(err error) bool {
	return errors.Is(err, drug.ErrCompanyNotFound) ||
		errors.Is(err, drug.ErrNotFound) ||
		errors.Is(err, order.ErrBuyerNotFound) ||
		errors.Is(err, order.ErrSellerNotFound) ||
		errors.Is(err, order.ErrDrugNotFound) ||
		errors.Is(err, shipment.ErrBuyerNotFound) ||
		errors.Is(err, shipment.ErrTransporterNotFound) ||
		errors.Is(err, shipment.ErrNoPurchaseOrder) ||
		errors.Is(err, shipment.ErrDrugNotFound) ||
		errors.Is(err, shipment.ErrNotFound) ||
		errors.Is(err, shipment.ErrAssetMissing) ||
		errors.Is(err, retail.ErrRetailerNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, registry.ErrDuplicateCRN) ||
		errors.Is(err, registry.ErrDuplicateCompany) ||
		errors.Is(err, drug.ErrDuplicateAsset)
}

func isValidation(err error) bool {
	return errors.Is(err, registry.ErrInvalidRole) ||
		errors.Is(err, registry.ErrInvalidCompany) ||
		errors.Is(err, drug.ErrInvalidAsset) ||
		errors.Is(err, drug.ErrNotManufacturer) ||
		errors.Is(err, order.ErrBuyerIsManufacturer) ||
		errors.Is(err, order.ErrDrugNotHeldBySeller) ||
		errors.Is(err, order.ErrHierarchySkipped) ||
		errors.Is(err, shipment.ErrBuyerIsManufacturer) ||
		errors.Is(err, shipment.ErrAssetCountMismatch) ||
		errors.Is(err, shipment.ErrSellerOwnershipMismatch) ||
		errors.Is(err, shipment.ErrInsufficientStock) ||
		errors.Is(err, shipment.ErrTransporterMismatch) ||
		errors.Is(err, retail.ErrNotOwner) ||
		errors.Is(err, retail.ErrConsumerRequired)
}
