// Package compress is the back-end entropy coder used to turn one
// category's transformed byte stream into a compressed LZMA2 stream and
// back, with the position-bits, literal-context-bits, and dictionary
// capacity tuning the category coder computes per stream.
//
// # Overview
//
// Every category stream is compressed independently as a self-contained
// raw LZMA2 stream (no xz container) via github.com/ulikunitz/xz/lzma's
// Writer2/Reader2. The stream carries its own literal-context/position-bits
// in its properties byte but not its dictionary capacity, so Decompress
// never needs the caller to supply the lc/pb Compress chose — it only
// needs a dictionary capacity at least as large as the one the encoder
// used, so it always requests the maximum (see MaxDictCap).
//
// # Parameters
//
// Params.PB (position bits) and Params.LC (literal context bits) follow
// spec.md §4.9's per-category tuning: pb is 2 for CODE/EH/OTHER and 0
// otherwise; lc is chosen by the caller via a two-pass trial (3 vs 0) for
// every other category, and left at the encoder's default for
// CODE/EH/OTHER. DictCap is the next power of two at or above the stream
// length, clamped to [1<<16, 1<<26].
//
// # No integrity check
//
// Unlike a typical .xz file, these streams carry no CRC or other
// integrity check: the container's own reversibility guarantee is the only
// correctness signal this module relies on, matching spec.md §4.9's "no
// integrity check" requirement.
package compress
