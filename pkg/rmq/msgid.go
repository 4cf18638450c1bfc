package rmq

import (
	"encoding/binary"
	"encoding/hex"
	"net"
	"os"
	"sync/atomic"

	hashuuid "github.com/hashicorp/go-uuid"
)

// idCounter is the monotonic component of the message-id scheme, the
// Go-native analogue of the source's MAC+PID+time+counter composite.
var idCounter uint64

func nextCounter() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

var localIPv4 = resolveLocalIPv4()

func resolveLocalIPv4() [4]byte {
	var out [4]byte
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return out
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		v4 := ipNet.IP.To4()
		if v4 == nil {
			continue
		}
		copy(out[:], v4)
		return out
	}
	return out
}

// bornHost returns the dotted-quad of the local IPv4 interface, for the
// system_attribute.born_host field.
func bornHost() string {
	ip := net.IP(localIPv4[:])
	return ip.String()
}

// newMessageID produces a globally-unique opaque string: local IPv4 (4B)
// + pid (2B) + a random salt from go-uuid (4B) + a monotonic counter
// (8B), hex encoded. Broker-side interpretation is not required, only
// global uniqueness.
func newMessageID() (string, error) {
	salt, err := hashuuid.GenerateRandomBytes(4)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, 18)
	buf = append(buf, localIPv4[:]...)
	pid := uint16(os.Getpid())
	var pidBuf [2]byte
	binary.BigEndian.PutUint16(pidBuf[:], pid)
	buf = append(buf, pidBuf[:]...)
	buf = append(buf, salt...)
	var ctrBuf [8]byte
	binary.BigEndian.PutUint64(ctrBuf[:], nextCounter())
	buf = append(buf, ctrBuf[:]...)
	return hex.EncodeToString(buf), nil
}

// newRequestID is a lighter-weight unique id for the per-RPC request-id
// header the signer attaches to every call.
func newRequestID() (string, error) {
	b, err := hashuuid.GenerateRandomBytes(16)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
