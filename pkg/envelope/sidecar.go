package envelope

import (
	"crypto/sha256"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto/kzg4844"

	wireerr "github.com/mrz1836/ethwire/pkg/errors"
	"github.com/mrz1836/ethwire/pkg/rlp"
)

// Sidecar is a blob with its KZG commitment and proof, carried alongside an
// EIP-4844 transaction in its network form.
type Sidecar struct {
	Blob       kzg4844.Blob
	Commitment kzg4844.Commitment
	Proof      kzg4844.Proof
}

// NewSidecar computes the commitment and proof for blob.
func NewSidecar(blob *kzg4844.Blob) (Sidecar, error) {
	commitment, err := kzg4844.BlobToCommitment(blob)
	if err != nil {
		return Sidecar{}, wireerr.Detail(wireerr.ErrInvalidSidecar, "reason", err.Error())
	}
	proof, err := kzg4844.ComputeBlobProof(blob, commitment)
	if err != nil {
		return Sidecar{}, wireerr.Detail(wireerr.ErrInvalidSidecar, "reason", err.Error())
	}
	return Sidecar{Blob: *blob, Commitment: commitment, Proof: proof}, nil
}

// BlobHashes returns the version 0x01 hash of every sidecar commitment.
func BlobHashes(sidecars []Sidecar) []common.Hash {
	hasher := sha256.New()
	out := make([]common.Hash, len(sidecars))
	for i := range sidecars {
		hasher.Reset()
		out[i] = kzg4844.CalcBlobHashV1(hasher, &sidecars[i].Commitment)
	}
	return out
}

// VerifySidecars checks every KZG proof against its blob and commitment.
func VerifySidecars(sidecars []Sidecar) error {
	for i := range sidecars {
		sc := &sidecars[i]
		if err := kzg4844.VerifyBlobProof(&sc.Blob, sc.Commitment, sc.Proof); err != nil {
			return wireerr.WithDetails(wireerr.ErrInvalidSidecar, map[string]string{
				"index":  strconv.Itoa(i),
				"reason": err.Error(),
			})
		}
	}
	return nil
}

func sidecarFields(sidecars []Sidecar) (blobs, commitments, proofs rlp.List) {
	blobs = make(rlp.List, len(sidecars))
	commitments = make(rlp.List, len(sidecars))
	proofs = make(rlp.List, len(sidecars))
	for i := range sidecars {
		blobs[i] = rlp.String(sidecars[i].Blob[:])
		commitments[i] = rlp.String(sidecars[i].Commitment[:])
		proofs[i] = rlp.String(sidecars[i].Proof[:])
	}
	return blobs, commitments, proofs
}

func sidecarsFromFields(blobsV, commitmentsV, proofsV rlp.Value) ([]Sidecar, error) {
	blobs, err := rlp.AsList(blobsV)
	if err != nil {
		return nil, err
	}
	commitments, err := rlp.AsList(commitmentsV)
	if err != nil {
		return nil, err
	}
	proofs, err := rlp.AsList(proofsV)
	if err != nil {
		return nil, err
	}
	if len(blobs) != len(commitments) || len(blobs) != len(proofs) {
		return nil, wireerr.WithDetails(wireerr.ErrInvalidSidecar, map[string]string{
			"blobs":       strconv.Itoa(len(blobs)),
			"commitments": strconv.Itoa(len(commitments)),
			"proofs":      strconv.Itoa(len(proofs)),
		})
	}

	out := make([]Sidecar, len(blobs))
	for i := range blobs {
		sc := &out[i]
		if err := readFixed(blobs[i], sc.Blob[:], "blob", i); err != nil {
			return nil, err
		}
		if err := readFixed(commitments[i], sc.Commitment[:], "commitment", i); err != nil {
			return nil, err
		}
		if err := readFixed(proofs[i], sc.Proof[:], "proof", i); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readFixed(v rlp.Value, dst []byte, kind string, index int) error {
	s, err := rlp.AsString(v)
	if err != nil {
		return err
	}
	if len(s) != len(dst) {
		return wireerr.WithDetails(wireerr.ErrInvalidSidecar, map[string]string{
			"index": strconv.Itoa(index),
			"kind":  kind,
			"size":  strconv.Itoa(len(s)),
		})
	}
	copy(dst, s)
	return nil
}
