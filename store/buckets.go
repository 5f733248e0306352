package store

// Bucket names for the six logical tables of §6, plus one extra top-level
// bucket (pending_transactions_order) backing the mempool's insertion-order
// index, which the primary key does not provide.
var (
	bucketBlocks          = []byte("blocks")
	bucketPendingTx        = []byte("pending_transactions")
	bucketPendingTxOrder   = []byte("pending_transactions_order")
	bucketUTXOs            = []byte("transaction_outputs")
	bucketObjects          = []byte("objects")
	bucketFaucetOutputs    = []byte("intermediate_faucet_outputs")
	bucketTrackerPings     = []byte("tracker_pings")
)

var allBuckets = [][]byte{
	bucketBlocks,
	bucketPendingTx,
	bucketPendingTxOrder,
	bucketUTXOs,
	bucketObjects,
	bucketFaucetOutputs,
	bucketTrackerPings,
}
