package coordinator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/csip-protocol/csip-go/pkg/att"
	"github.com/csip-protocol/csip-go/pkg/coordinator"
	"github.com/csip-protocol/csip-go/pkg/setid"
)

// Standard single-instance handle layout used by the fakes.
const (
	fakeBase    = att.Handle(0x0010)
	offSIRK     = 2
	offSize     = 4
	offLock     = 6
	offRank     = 8
	serviceSpan = 9
)

var testSIRK = setid.SIRK{
	0xcd, 0xcc, 0x72, 0xdd, 0x86, 0x8c, 0xcd, 0xce,
	0x22, 0xfd, 0xa1, 0x21, 0x09, 0x7d, 0x7d, 0x45,
}

var testLTK = []byte{
	0x67, 0x6e, 0x1b, 0x9b, 0xd4, 0x48, 0x69, 0x6f,
	0x06, 0x1e, 0xc6, 0x22, 0x3c, 0xe5, 0xce, 0xd9,
}

// opRecorder collects the lock reads and writes issued across all fake
// connections, in issue order, keyed by member rank.
type opRecorder struct {
	mu     sync.Mutex
	reads  []uint8
	writes []recWrite
}

type recWrite struct {
	rank  uint8
	value byte
}

func (r *opRecorder) recordRead(rank uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, rank)
}

func (r *opRecorder) recordWrite(rank uint8, value byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, recWrite{rank: rank, value: value})
}

func (r *opRecorder) readOrder() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint8(nil), r.reads...)
}

func (r *opRecorder) writeOrder() []recWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recWrite(nil), r.writes...)
}

// fakeConn is a scripted att.Conn for one member.
type fakeConn struct {
	mu sync.Mutex

	rank  uint8
	state att.ConnState
	ltk   []byte

	services []att.ServiceRecord
	chars    []att.Characteristic
	reads    map[att.Handle][]byte
	readErr  map[att.Handle]error

	// writeHook, when set, decides the outcome of every write.
	writeHook func(handle att.Handle, value []byte) error

	subs map[att.Handle]*att.SubscribeParams

	rec *opRecorder

	// gate, when set, blocks the next write until closed; writeStarted
	// is signalled right before blocking.
	gate         chan struct{}
	writeStarted chan struct{}

	ops int
}

func newFakeConn(rank, size uint8, sirkValue []byte) *fakeConn {
	f := &fakeConn{
		rank:    rank,
		state:   att.StateConnected,
		reads:   make(map[att.Handle][]byte),
		readErr: make(map[att.Handle]error),
		subs:    make(map[att.Handle]*att.SubscribeParams),
	}
	f.addInstance(fakeBase, rank, size, sirkValue)
	return f
}

func plainSIRK(sirk setid.SIRK) []byte {
	return setid.SIRKValue{Type: setid.SIRKTypePlain, Value: [setid.SIRKSize]byte(sirk)}.Bytes()
}

func encryptedSIRK(t *testing.T, ltk []byte, sirk setid.SIRK) []byte {
	t.Helper()
	enc, err := setid.EncryptSIRK(ltk, sirk)
	if err != nil {
		t.Fatalf("EncryptSIRK: %v", err)
	}
	return setid.SIRKValue{Type: setid.SIRKTypeEncrypted, Value: [setid.SIRKSize]byte(enc)}.Bytes()
}

// addInstance appends one service instance at base to the fake's tables.
func (f *fakeConn) addInstance(base att.Handle, rank, size uint8, sirkValue []byte) {
	f.services = append(f.services, att.ServiceRecord{
		Handle:    base,
		EndHandle: base + serviceSpan,
		UUID:      setid.ServiceUUID,
	})
	f.chars = append(f.chars,
		att.Characteristic{Handle: base + offSIRK - 1, ValueHandle: base + offSIRK,
			UUID: setid.SIRKUUID, Properties: att.PropRead | att.PropNotify},
		att.Characteristic{Handle: base + offSize - 1, ValueHandle: base + offSize,
			UUID: setid.SizeUUID, Properties: att.PropRead | att.PropNotify},
		att.Characteristic{Handle: base + offLock - 1, ValueHandle: base + offLock,
			UUID: setid.LockUUID, Properties: att.PropRead | att.PropWrite | att.PropNotify},
		att.Characteristic{Handle: base + offRank - 1, ValueHandle: base + offRank,
			UUID: setid.RankUUID, Properties: att.PropRead},
	)
	f.reads[base+offSIRK] = sirkValue
	f.reads[base+offSize] = []byte{size}
	f.reads[base+offLock] = []byte{setid.LockReleased}
	f.reads[base+offRank] = []byte{rank}
}

func (f *fakeConn) opCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ops
}

func (f *fakeConn) State() att.ConnState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeConn) LongTermKey() ([]byte, error) {
	if f.ltk == nil {
		return nil, att.ErrInsufficientAuthentication
	}
	return f.ltk, nil
}

func (f *fakeConn) DiscoverPrimaryServices(_ context.Context, uuid att.UUID16, rng att.HandleRange) ([]att.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops++

	if uuid != setid.ServiceUUID {
		return nil, nil
	}
	var out []att.ServiceRecord
	for _, svc := range f.services {
		if rng.Contains(svc.Handle) {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (f *fakeConn) DiscoverCharacteristics(_ context.Context, rng att.HandleRange) ([]att.Characteristic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops++

	var out []att.Characteristic
	for _, ch := range f.chars {
		if rng.Contains(ch.Handle) {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (f *fakeConn) Read(_ context.Context, handle att.Handle) ([]byte, error) {
	f.mu.Lock()
	f.ops++
	rec := f.rec
	err := f.readErr[handle]
	data := f.reads[handle]
	isLock := f.isLockHandle(handle)
	f.mu.Unlock()

	if rec != nil && isLock {
		rec.recordRead(f.rank)
	}
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, att.ErrInvalidHandle
	}
	return data, nil
}

func (f *fakeConn) Write(_ context.Context, handle att.Handle, value []byte) error {
	f.mu.Lock()
	f.ops++
	gate := f.gate
	started := f.writeStarted
	hook := f.writeHook
	rec := f.rec
	f.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	if rec != nil && len(value) == 1 {
		rec.recordWrite(f.rank, value[0])
	}
	if hook != nil {
		return hook(handle, value)
	}
	f.mu.Lock()
	f.reads[handle] = append([]byte(nil), value...)
	f.mu.Unlock()
	return nil
}

func (f *fakeConn) Subscribe(_ context.Context, params *att.SubscribeParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops++
	f.subs[params.ValueHandle] = params
	return nil
}

func (f *fakeConn) isLockHandle(handle att.Handle) bool {
	for _, svc := range f.services {
		if handle == svc.Handle+offLock {
			return true
		}
	}
	return false
}

var _ att.Conn = (*fakeConn)(nil)

// results funnels the coordinator callbacks into channels.
type results struct {
	discover    chan error
	sets        chan error
	lockSet     chan error
	releaseSet  chan error
	lockState   chan lockStateResult
	lockChanged chan bool
}

type lockStateResult struct {
	err           error
	alreadyLocked bool
}

func newTestCoordinator(t *testing.T, cfg coordinator.Config) (*coordinator.Coordinator, *results) {
	t.Helper()

	coord, err := coordinator.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res := &results{
		discover:    make(chan error, 4),
		sets:        make(chan error, 4),
		lockSet:     make(chan error, 4),
		releaseSet:  make(chan error, 4),
		lockState:   make(chan lockStateResult, 4),
		lockChanged: make(chan bool, 16),
	}
	coord.RegisterCallbacks(coordinator.Callbacks{
		Discover: func(_ *coordinator.SetMember, err error, _ int) {
			res.discover <- err
		},
		Sets: func(_ *coordinator.SetMember, err error, _ int) {
			res.sets <- err
		},
		LockSet: func(err error) {
			res.lockSet <- err
		},
		ReleaseSet: func(err error) {
			res.releaseSet <- err
		},
		LockStateRead: func(_ setid.SetInfo, err error, alreadyLocked bool) {
			res.lockState <- lockStateResult{err: err, alreadyLocked: alreadyLocked}
		},
		LockChanged: func(_ *coordinator.Instance, locked bool) {
			res.lockChanged <- locked
		},
	})
	return coord, res
}

func waitErr(t *testing.T, ch chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return nil
	}
}

func waitLockState(t *testing.T, ch chan lockStateResult) lockStateResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lock state callback")
		return lockStateResult{}
	}
}

// setUpMember runs the full discovery and synchronization choreography for
// one member.
func setUpMember(t *testing.T, coord *coordinator.Coordinator, res *results, member *coordinator.SetMember) {
	t.Helper()

	if err := coord.Discover(context.Background(), member); err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if err := waitErr(t, res.discover); err != nil {
		t.Fatalf("discover callback: %v", err)
	}
	if err := coord.DiscoverSets(context.Background(), member); err != nil {
		t.Fatalf("DiscoverSets: %v", err)
	}
	if err := waitErr(t, res.sets); err != nil {
		t.Fatalf("sets callback: %v", err)
	}
}

// newTestSet builds a discovered, synchronized set of members with the
// given ranks, all wired to the shared recorder.
func newTestSet(t *testing.T, coord *coordinator.Coordinator, res *results, rec *opRecorder, ranks ...uint8) ([]*coordinator.SetMember, []*fakeConn, setid.SetInfo) {
	t.Helper()

	size := uint8(len(ranks))
	info := setid.SetInfo{SIRK: testSIRK, Size: size}

	members := make([]*coordinator.SetMember, 0, len(ranks))
	conns := make([]*fakeConn, 0, len(ranks))
	for _, rank := range ranks {
		conn := newFakeConn(rank, size, plainSIRK(testSIRK))
		conn.rec = rec
		member := coordinator.NewSetMember(conn)
		setUpMember(t, coord, res, member)
		members = append(members, member)
		conns = append(conns, conn)
	}
	return members, conns, info
}
