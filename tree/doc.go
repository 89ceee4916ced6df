/*
Package tree implements a concurrent Merkle tree: a fixed-depth binary
hash tree whose writer keeps only the root, a proof for the next append
slot, and a short ring buffer of recent changes, while the leaves
themselves live with whoever asked for them.

Jargon:

In parts of the code you'll see these terminology being used.

	Slot - A leaf position.  A tree of depth d has 2**d slots.
	Appended slot - A slot at an index below the rightmost index.
	Sentinel - The hash value an unset slot reads as.

Layout:

Slots are numbered from the bottom left.  A tree with depth 2 and
4 slots looks like:

	      r
	|-------\
	n       n
	|---\   |---\
	00  01  02  03

Unset slots hold the sentinel, and a whole unset subtree collapses to a
precomputed per-level hash, so the writer never materializes the right
side of the tree.

Tree:

Tree is the writer side.  It holds no leaves at all: every SetLeaf
carries a proof for the slot being written, and the proof is checked
against the live root before anything changes.  Appends are cheap
because the tree maintains the sibling hashes of the next open slot
as it goes.

A proof computed against an older root is not rejected outright.  Each
mutation records its sequence number, slot, new root and the updated
hashes along the slot's ascent in a ring buffer.  When a stale proof
arrives, the ring is scanned for the root it was built against, and the
proof is patched entry by entry up to the live state.  Only when two
writers touched the same slot does the operation fail.  A proof older
than the ring window cannot be patched and must be refetched.

RefTree:

RefTree is the reader side: a plain dense tree holding every node, fed
by the change events the writer emits.  It serves fresh proofs and is
the thing to diff a Tree against in tests.
*/
package tree
