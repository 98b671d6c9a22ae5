package slideshow

import (
	"encoding/binary"
)

// Frame emits a MOT object for entry: header fields content-type,
// MIME/format tag, and transport-id, followed by the payload (§4.4
// MOT framing, §6 output side). The precise DAB MOT slideshow byte
// layout (segmentation, CRCs, directory entries) is delegated to the
// framing collaborator named in spec.md §1's Non-goals; this produces the
// logical object the framing collaborator packetizes.
const motContentTypeImage byte = 0x02 // ContentType=image, per the MOT content type registry (2.0)

// Frame builds the logical MOT object bytes: a fixed 1-byte content-type,
// a length-prefixed MIME tag, a 4-byte big-endian transport id, and the
// payload.
func Frame(entry Entry, transportID uint32) []byte {
	mime := string(entry.Format)
	out := make([]byte, 0, 1+1+len(mime)+4+len(entry.Payload))
	out = append(out, motContentTypeImage)
	out = append(out, byte(len(mime)))
	out = append(out, []byte(mime)...)

	var idBuf [4]byte
	binary.BigEndian.PutUint32(idBuf[:], transportID)
	out = append(out, idBuf[:]...)

	out = append(out, entry.Payload...)
	return out
}
