// Package rpcapi implements the §6 external RPC surface as a genuine
// google.golang.org/grpc service, with hand-authored generated-style
// message types and a ServiceDesc in the shape of protoc-gen-go-grpc
// output — mirroring the teacher's netadapter/server/grpcserver wiring
// (grpc.NewServer, RegisterXxxServer, grpc.Dial) without the
// unreproducible raw protobuf descriptor bytes. See DESIGN.md for why
// the wire encoding is a JSON-over-grpc codec rather than the real
// protobuf binary format.
package rpcapi

// PeerInfo describes one known peer, returned by GetKnownPeers.
type PeerInfo struct {
	Address  string `protobuf:"bytes,1,opt,name=address" json:"address"`
	LastSeen int64  `protobuf:"varint,2,opt,name=last_seen" json:"last_seen"`
}

func (*PeerInfo) Reset()         {}
func (m *PeerInfo) String() string { return protoString(m) }
func (*PeerInfo) ProtoMessage()  {}

// GetKnownPeersRequest carries no fields.
type GetKnownPeersRequest struct{}

func (*GetKnownPeersRequest) Reset()         {}
func (m *GetKnownPeersRequest) String() string { return protoString(m) }
func (*GetKnownPeersRequest) ProtoMessage()  {}

// GetKnownPeersResponse lists the node's known peers.
type GetKnownPeersResponse struct {
	Peers []*PeerInfo `protobuf:"bytes,1,rep,name=peers" json:"peers"`
}

func (*GetKnownPeersResponse) Reset()         {}
func (m *GetKnownPeersResponse) String() string { return protoString(m) }
func (*GetKnownPeersResponse) ProtoMessage()  {}

// GetAddressStateRequest names the address to query.
type GetAddressStateRequest struct {
	Address []byte `protobuf:"bytes,1,opt,name=address" json:"address"`
}

func (*GetAddressStateRequest) Reset()         {}
func (m *GetAddressStateRequest) String() string { return protoString(m) }
func (*GetAddressStateRequest) ProtoMessage()  {}

// GetAddressStateResponse returns an address's balance, nonce, and used
// OTS index count (§3 Address State).
type GetAddressStateResponse struct {
	Balance     uint64 `protobuf:"varint,1,opt,name=balance" json:"balance"`
	Nonce       uint64 `protobuf:"varint,2,opt,name=nonce" json:"nonce"`
	UsedOTSKeys uint32 `protobuf:"varint,3,opt,name=used_ots_keys" json:"used_ots_keys"`
}

func (*GetAddressStateResponse) Reset()         {}
func (m *GetAddressStateResponse) String() string { return protoString(m) }
func (*GetAddressStateResponse) ProtoMessage()  {}

// TransferCoinsRequest describes a transfer to be built (but not
// signed) by the node, per §6: "TransferCoins(...) -> unsigned
// transaction".
type TransferCoinsRequest struct {
	SourceAddress []byte `protobuf:"bytes,1,opt,name=source_address" json:"source_address"`
	DestAddress   []byte `protobuf:"bytes,2,opt,name=dest_address" json:"dest_address"`
	Amount        uint64 `protobuf:"varint,3,opt,name=amount" json:"amount"`
	Fee           uint64 `protobuf:"varint,4,opt,name=fee" json:"fee"`
}

func (*TransferCoinsRequest) Reset()         {}
func (m *TransferCoinsRequest) String() string { return protoString(m) }
func (*TransferCoinsRequest) ProtoMessage()  {}

// TransferCoinsResponse carries the unsigned transaction's canonical
// fields, for the caller to sign externally and resubmit as a TX
// gossip message.
type TransferCoinsResponse struct {
	SourceAddress []byte `protobuf:"bytes,1,opt,name=source_address" json:"source_address"`
	DestAddress   []byte `protobuf:"bytes,2,opt,name=dest_address" json:"dest_address"`
	Amount        uint64 `protobuf:"varint,3,opt,name=amount" json:"amount"`
	Fee           uint64 `protobuf:"varint,4,opt,name=fee" json:"fee"`
	Nonce         uint64 `protobuf:"varint,5,opt,name=nonce" json:"nonce"`
}

func (*TransferCoinsResponse) Reset()         {}
func (m *TransferCoinsResponse) String() string { return protoString(m) }
func (*TransferCoinsResponse) ProtoMessage()  {}

// GetBlockMiningCompatibleRequest names the block height to fetch.
type GetBlockMiningCompatibleRequest struct {
	Height uint64 `protobuf:"varint,1,opt,name=height" json:"height"`
}

func (*GetBlockMiningCompatibleRequest) Reset()         {}
func (m *GetBlockMiningCompatibleRequest) String() string { return protoString(m) }
func (*GetBlockMiningCompatibleRequest) ProtoMessage()  {}

// BlockHeader is the mining-relevant subset of a block's fields.
type BlockHeader struct {
	BlockNumber    uint64 `protobuf:"varint,1,opt,name=block_number" json:"block_number"`
	Timestamp      int64  `protobuf:"varint,2,opt,name=timestamp" json:"timestamp"`
	PrevHeaderHash []byte `protobuf:"bytes,3,opt,name=prev_header_hash" json:"prev_header_hash"`
	MiningNonce    uint32 `protobuf:"varint,4,opt,name=mining_nonce" json:"mining_nonce"`
	HeaderHash     []byte `protobuf:"bytes,5,opt,name=header_hash" json:"header_hash"`
}

func (*BlockHeader) Reset()         {}
func (m *BlockHeader) String() string { return protoString(m) }
func (*BlockHeader) ProtoMessage()  {}

// BlockMetadata mirrors block.Metadata's externally relevant fields.
type BlockMetadata struct {
	BlockDifficulty      []byte `protobuf:"bytes,1,opt,name=block_difficulty" json:"block_difficulty"`
	CumulativeDifficulty []byte `protobuf:"bytes,2,opt,name=cumulative_difficulty" json:"cumulative_difficulty"`
}

func (*BlockMetadata) Reset()         {}
func (m *BlockMetadata) String() string { return protoString(m) }
func (*BlockMetadata) ProtoMessage()  {}

// GetBlockMiningCompatibleResponse returns a block's header and metadata.
type GetBlockMiningCompatibleResponse struct {
	Header   *BlockHeader   `protobuf:"bytes,1,opt,name=header" json:"header"`
	Metadata *BlockMetadata `protobuf:"bytes,2,opt,name=metadata" json:"metadata"`
}

func (*GetBlockMiningCompatibleResponse) Reset()         {}
func (m *GetBlockMiningCompatibleResponse) String() string { return protoString(m) }
func (*GetBlockMiningCompatibleResponse) ProtoMessage()  {}

// GetBlockToMineRequest names a wallet address. The server does not use
// it: the candidate's Coinbase always pays the chain's configured stake
// selector, the only destination Coinbase validation accepts.
type GetBlockToMineRequest struct {
	WalletAddress []byte `protobuf:"bytes,1,opt,name=wallet_address" json:"wallet_address"`
}

func (*GetBlockToMineRequest) Reset()         {}
func (m *GetBlockToMineRequest) String() string { return protoString(m) }
func (*GetBlockToMineRequest) ProtoMessage()  {}

// GetBlockToMineResponse carries an opaque mining blob (the gob-encoded
// candidate block) and the difficulty it must satisfy, as big-endian
// bytes.
type GetBlockToMineResponse struct {
	Blob       []byte `protobuf:"bytes,1,opt,name=blob" json:"blob"`
	Difficulty []byte `protobuf:"bytes,2,opt,name=difficulty" json:"difficulty"`
}

func (*GetBlockToMineResponse) Reset()         {}
func (m *GetBlockToMineResponse) String() string { return protoString(m) }
func (*GetBlockToMineResponse) ProtoMessage()  {}

// SubmitMinedBlockRequest carries a completed candidate blob (as
// returned by GetBlockToMine, with MiningNonce filled in) for
// resubmission through the normal add_block path.
type SubmitMinedBlockRequest struct {
	Blob []byte `protobuf:"bytes,1,opt,name=blob" json:"blob"`
}

func (*SubmitMinedBlockRequest) Reset()         {}
func (m *SubmitMinedBlockRequest) String() string { return protoString(m) }
func (*SubmitMinedBlockRequest) ProtoMessage()  {}

// SubmitMinedBlockResponse reports whether the chain accepted the block
// into its index (as new tip, alternate branch, or pending orphan).
type SubmitMinedBlockResponse struct {
	Accepted bool `protobuf:"varint,1,opt,name=accepted" json:"accepted"`
}

func (*SubmitMinedBlockResponse) Reset()         {}
func (m *SubmitMinedBlockResponse) String() string { return protoString(m) }
func (*SubmitMinedBlockResponse) ProtoMessage()  {}
