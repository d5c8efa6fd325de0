package octo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
	"github.com/drpcorg/octo/utils"
)

// Sync message types, one TLV record each.
const (
	MsgStateVector = 'V' // step 1: what I have
	MsgDiff        = 'D' // step 2: what you miss
	MsgUpdate      = 'U' // live update
)

type SyncMode byte

const (
	SyncRead   SyncMode = 1 // accept updates from the peer
	SyncWrite  SyncMode = 2 // answer the peer's state vector
	SyncLive   SyncMode = 4 // forward new updates as they happen
	SyncRW     SyncMode = SyncRead | SyncWrite
	SyncRWLive SyncMode = SyncRead | SyncWrite | SyncLive
)

var SyncMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "octo",
	Subsystem: "sync",
	Name:      "messages",
}, []string{"type", "direction"})

var ErrSyncClosed = errors.New("octo: syncer closed")

var _ protocol.FeedDrainCloser = (*Syncer)(nil)

/*
Syncer speaks the two step exchange with one peer over any record
transport. Start queues our state vector; the peer answers with the
diff it computed against it. With SyncLive, every later update of the
Doc is forwarded too, except updates that came from this very peer.

The Doc is not thread safe: all syncers of a Doc must share one Lock,
and local transactions must take it as well.
*/
type Syncer struct {
	Name string
	Doc  *Doc
	Mode SyncMode
	Lock sync.Locker
	// QueueLimit bounds the bytes waiting to be fed, default 1<<24.
	QueueLimit int

	log    utils.Logger
	oqueue *utils.Queue[protocol.Records]
	once   sync.Once
	reason error
}

func (s *Syncer) init() {
	s.once.Do(func() {
		if s.Lock == nil {
			s.Lock = &sync.Mutex{}
		}
		if s.QueueLimit == 0 {
			s.QueueLimit = 1 << 24
		}
		if s.Mode == 0 {
			s.Mode = SyncRWLive
		}
		s.log = s.Doc.log
		s.oqueue = utils.NewQueue[protocol.Records](s.QueueLimit)
	})
}

func (s *Syncer) hookName() string {
	return "sync:" + s.Name
}

// Start queues the handshake and, in live mode, subscribes to the Doc.
func (s *Syncer) Start(ctx context.Context) error {
	s.init()
	s.Lock.Lock()
	defer s.Lock.Unlock()
	if s.Doc.Destroyed() {
		return octo_errors.ErrDocDestroyed
	}
	if s.Mode&SyncLive != 0 {
		s.Doc.AddHook(s.hookName(), s.forward)
	}
	if s.Mode&SyncRead != 0 {
		sv := EncodeStateVector(s.Doc.StateVector())
		return s.send(ctx, MsgStateVector, sv)
	}
	return nil
}

func (s *Syncer) forward(update []byte, origin string) error {
	if origin == s.Name {
		return nil
	}
	err := s.send(context.Background(), MsgUpdate, update)
	if err != nil {
		s.reason = err
		s.log.Warn("sync: peer can not keep up", "peer", s.Name, "err", err)
	}
	return err
}

func (s *Syncer) send(ctx context.Context, lit byte, body []byte) error {
	SyncMessages.WithLabelValues(string(lit), "out").Inc()
	return s.oqueue.Drain(ctx, protocol.Records{protocol.Record(lit, body)})
}

// Feed blocks until there are messages for the peer.
func (s *Syncer) Feed(ctx context.Context) (protocol.Records, error) {
	s.init()
	recs, err := s.oqueue.Feed(ctx)
	if errors.Is(err, utils.ErrClosed) {
		err = ErrSyncClosed
	}
	return recs, err
}

// Drain consumes messages of the peer; a record may carry several.
func (s *Syncer) Drain(ctx context.Context, recs protocol.Records) error {
	s.init()
	for _, rec := range recs {
		for len(rec) > 0 {
			lit, body, rest, err := protocol.TakeAnyWary(rec)
			if err != nil {
				return err
			}
			if err = s.handle(ctx, lit, body); err != nil {
				s.log.WarnCtx(ctx, "sync: bad message", "peer", s.Name, "type", string(lit), "err", err)
				return err
			}
			rec = rest
		}
	}
	return nil
}

func (s *Syncer) handle(ctx context.Context, lit byte, body []byte) error {
	SyncMessages.WithLabelValues(string(lit), "in").Inc()
	s.Lock.Lock()
	defer s.Lock.Unlock()
	switch lit {
	case MsgStateVector:
		if s.Mode&SyncWrite == 0 {
			return nil
		}
		sv, err := DecodeStateVector(body)
		if err != nil {
			return err
		}
		if s.Doc.Destroyed() {
			return octo_errors.ErrDocDestroyed
		}
		return s.send(ctx, MsgDiff, s.Doc.EncodeStateAsUpdate(sv))
	case MsgDiff, MsgUpdate:
		if s.Mode&SyncRead == 0 {
			return nil
		}
		return s.Doc.ApplyUpdateFrom(body, s.Name)
	}
	return fmt.Errorf("%w: sync message %q", octo_errors.ErrInvalidTag, lit)
}

// Close unsubscribes from the Doc and wakes up the feeding side.
func (s *Syncer) Close() error {
	s.init()
	s.Lock.Lock()
	s.Doc.RemoveHook(s.hookName())
	s.Lock.Unlock()
	if s.reason != nil {
		s.log.Debug("sync: closed", "peer", s.Name, "reason", s.reason)
	}
	return s.oqueue.Close()
}
