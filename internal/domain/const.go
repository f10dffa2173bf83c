package domain

const (
	// Gateway constants
	DEFAULT_IPFS_GATEWAY    = "https://ipfs.io"
	DEFAULT_ARWEAVE_GATEWAY = "https://arweave.net"

	// Marketplace constants
	DEFAULT_DENOM = "usei"

	// Checkpoint key used by the block scanner
	CURRENT_HEIGHT_KEY = "current_height"

	// DEFAULT_SAFETY_LAG is the number of trailing blocks the scanner leaves to the stream
	DEFAULT_SAFETY_LAG = 10
)
