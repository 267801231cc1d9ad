package rpcapi

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/theQRL/qrl-core-go/block"
	"github.com/theQRL/qrl-core-go/chain"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/miner"
	"github.com/theQRL/qrl-core-go/store"
	"github.com/theQRL/qrl-core-go/util"
)

// PeerLister is the subset of node-level peer bookkeeping GetKnownPeers
// needs; the node package supplies the real implementation.
type PeerLister interface {
	KnownPeers() []PeerInfo
}

// Server implements QRLAPIServer over a Chain Manager and Miner,
// mirroring the teacher's rpccontext.Context pattern of a thin server
// struct holding the collaborators RPC handlers read from, rather than
// owning any state itself.
type Server struct {
	chain *chain.Manager
	miner *miner.Miner
	peers PeerLister
}

// NewServer constructs a Server backed by chainMgr/minerInst/peers.
func NewServer(chainMgr *chain.Manager, minerInst *miner.Miner, peers PeerLister) *Server {
	return &Server{chain: chainMgr, miner: minerInst, peers: peers}
}

func (s *Server) GetKnownPeers(ctx context.Context, req *GetKnownPeersRequest) (*GetKnownPeersResponse, error) {
	var peers []*PeerInfo
	for _, p := range s.peers.KnownPeers() {
		p := p
		peers = append(peers, &p)
	}
	return &GetKnownPeersResponse{Peers: peers}, nil
}

func (s *Server) GetAddressState(ctx context.Context, req *GetAddressStateRequest) (*GetAddressStateResponse, error) {
	addr, err := util.NewAddressFromBytes(req.Address)
	if err != nil {
		return nil, errors.Wrap(err, "decoding address")
	}
	state, err := s.chain.TipAddressState(addr)
	if err != nil {
		return nil, errors.Wrap(err, "loading address state")
	}
	return &GetAddressStateResponse{
		Balance:     state.Balance,
		Nonce:       state.Nonce,
		UsedOTSKeys: uint32(len(state.UsedOTS)),
	}, nil
}

func (s *Server) TransferCoins(ctx context.Context, req *TransferCoinsRequest) (*TransferCoinsResponse, error) {
	src, err := util.NewAddressFromBytes(req.SourceAddress)
	if err != nil {
		return nil, errors.Wrap(err, "decoding source address")
	}
	dst, err := util.NewAddressFromBytes(req.DestAddress)
	if err != nil {
		return nil, errors.Wrap(err, "decoding destination address")
	}
	state, err := s.chain.TipAddressState(src)
	if err != nil {
		return nil, errors.Wrap(err, "loading source address state")
	}
	return &TransferCoinsResponse{
		SourceAddress: src.Bytes(),
		DestAddress:   dst.Bytes(),
		Amount:        req.Amount,
		Fee:           req.Fee,
		Nonce:         state.Nonce + 1,
	}, nil
}

func (s *Server) GetBlockMiningCompatible(ctx context.Context, req *GetBlockMiningCompatibleRequest) (*GetBlockMiningCompatibleResponse, error) {
	b, err := s.chain.GetBlockByNumber(req.Height)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "no main-chain block at height %d", req.Height)
		}
		return nil, errors.Wrap(err, "loading block by height")
	}
	meta, err := s.chain.GetMetadataByHeaderHash(b.HeaderHash())
	if err != nil {
		return nil, errors.Wrap(err, "loading block metadata")
	}

	hh := b.HeaderHash()
	prev := b.PrevHeaderHash
	return &GetBlockMiningCompatibleResponse{
		Header: &BlockHeader{
			BlockNumber:    b.BlockNumber,
			Timestamp:      b.Timestamp,
			PrevHeaderHash: prev[:],
			MiningNonce:    b.MiningNonce,
			HeaderHash:     hh[:],
		},
		Metadata: &BlockMetadata{
			BlockDifficulty:      meta.BlockDifficulty.Bytes(),
			CumulativeDifficulty: meta.CumulativeDifficulty.Bytes(),
		},
	}, nil
}

func (s *Server) GetBlockToMine(ctx context.Context, req *GetBlockToMineRequest) (*GetBlockToMineResponse, error) {
	candidate, err := s.miner.BuildCandidate()
	if err != nil {
		return nil, errors.Wrap(err, "building mining candidate")
	}
	difficulty, _, err := s.chain.CandidateDifficultyAndTarget(candidate.Timestamp)
	if err != nil {
		return nil, errors.Wrap(err, "computing candidate difficulty")
	}

	blob, err := block.EncodeBlock(candidate)
	if err != nil {
		return nil, errors.Wrap(err, "encoding candidate block")
	}
	return &GetBlockToMineResponse{Blob: blob, Difficulty: difficulty.Bytes()}, nil
}

func (s *Server) SubmitMinedBlock(ctx context.Context, req *SubmitMinedBlockRequest) (*SubmitMinedBlockResponse, error) {
	b, err := block.DecodeBlock(req.Blob)
	if err != nil {
		return nil, errors.Wrap(err, "decoding submitted block")
	}
	accepted, err := s.miner.Submit(b)
	if err != nil {
		logger.RPC().Warnf("submitted block rejected: %v", err)
		return &SubmitMinedBlockResponse{Accepted: false}, nil
	}
	return &SubmitMinedBlockResponse{Accepted: accepted}, nil
}
