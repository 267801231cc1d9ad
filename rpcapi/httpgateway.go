package rpcapi

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/theQRL/qrl-core-go/logger"
)

// HTTPGateway exposes the §6 RPC surface as small JSON/REST endpoints in
// front of the same Server the gRPC service uses, mirroring the
// teacher's apiserver/kasparov HTTP-muxing style without the Postgres
// explorer that package also carries.
type HTTPGateway struct {
	srv *Server
}

// NewHTTPGateway wraps srv for HTTP/JSON access.
func NewHTTPGateway(srv *Server) *HTTPGateway {
	return &HTTPGateway{srv: srv}
}

// Router builds the mux.Router serving the gateway's routes.
func (g *HTTPGateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/peers", g.handleGetKnownPeers).Methods(http.MethodGet)
	r.HandleFunc("/address/{address}", g.handleGetAddressState).Methods(http.MethodGet)
	r.HandleFunc("/transfer", g.handleTransferCoins).Methods(http.MethodPost)
	r.HandleFunc("/block/{height:[0-9]+}", g.handleGetBlockMiningCompatible).Methods(http.MethodGet)
	r.HandleFunc("/mining/template/{wallet}", g.handleGetBlockToMine).Methods(http.MethodGet)
	r.HandleFunc("/mining/submit", g.handleSubmitMinedBlock).Methods(http.MethodPost)
	return r
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.RPC().Warnf("encoding HTTP gateway response: %v", err)
	}
}

func sendError(w http.ResponseWriter, status int, err error) {
	sendJSON(w, status, map[string]string{"error": err.Error()})
}

func (g *HTTPGateway) handleGetKnownPeers(w http.ResponseWriter, r *http.Request) {
	resp, err := g.srv.GetKnownPeers(r.Context(), &GetKnownPeersRequest{})
	if err != nil {
		sendError(w, http.StatusInternalServerError, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (g *HTTPGateway) handleGetAddressState(w http.ResponseWriter, r *http.Request) {
	addrHex := mux.Vars(r)["address"]
	raw, err := hex.DecodeString(addrHex)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := g.srv.GetAddressState(r.Context(), &GetAddressStateRequest{Address: raw})
	if err != nil {
		sendError(w, http.StatusNotFound, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (g *HTTPGateway) handleTransferCoins(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceAddress string `json:"source_address"`
		DestAddress   string `json:"dest_address"`
		Amount        uint64 `json:"amount"`
		Fee           uint64 `json:"fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	src, err := hex.DecodeString(req.SourceAddress)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	dst, err := hex.DecodeString(req.DestAddress)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := g.srv.TransferCoins(r.Context(), &TransferCoinsRequest{
		SourceAddress: src,
		DestAddress:   dst,
		Amount:        req.Amount,
		Fee:           req.Fee,
	})
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (g *HTTPGateway) handleGetBlockMiningCompatible(w http.ResponseWriter, r *http.Request) {
	height, err := strconv.ParseUint(mux.Vars(r)["height"], 10, 64)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := g.srv.GetBlockMiningCompatible(r.Context(), &GetBlockMiningCompatibleRequest{Height: height})
	if err != nil {
		sendError(w, http.StatusNotFound, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (g *HTTPGateway) handleGetBlockToMine(w http.ResponseWriter, r *http.Request) {
	walletHex := mux.Vars(r)["wallet"]
	raw, err := hex.DecodeString(walletHex)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := g.srv.GetBlockToMine(r.Context(), &GetBlockToMineRequest{WalletAddress: raw})
	if err != nil {
		sendError(w, http.StatusInternalServerError, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (g *HTTPGateway) handleSubmitMinedBlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Blob string `json:"blob"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	blob, err := hex.DecodeString(req.Blob)
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := g.srv.SubmitMinedBlock(r.Context(), &SubmitMinedBlockRequest{Blob: blob})
	if err != nil {
		sendError(w, http.StatusBadRequest, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}
