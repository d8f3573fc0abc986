package identity

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Identity is a stable anonymous identifier for one player.
type Identity struct {
	ID string
}

// Provider resolves the process's anonymous identity. Resolution is
// asynchronous: Current reports ready=false until the bootstrap completes,
// and callers must not start a session before then.
type Provider interface {
	Current() (Identity, bool)
}

// Anonymous mints a fresh UUID-backed identity in the background.
type Anonymous struct {
	mu    sync.Mutex
	id    Identity
	ready bool
}

// NewAnonymous starts the bootstrap and returns immediately.
func NewAnonymous() *Anonymous {
	a := &Anonymous{}
	go a.resolve()
	return a
}

func (a *Anonymous) resolve() {
	id := uuid.New().String()
	a.mu.Lock()
	a.id = Identity{ID: id}
	a.ready = true
	a.mu.Unlock()
}

// Current returns the identity and whether the bootstrap has resolved.
func (a *Anonymous) Current() (Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.id, a.ready
}

// Static is a pre-resolved provider, useful for tests and for clients that
// bring their own identifier.
type Static struct {
	ID string
}

func (s Static) Current() (Identity, bool) {
	return Identity{ID: s.ID}, s.ID != ""
}

var nicknameAdjectives = []string{
	"brave", "calm", "clever", "eager", "gentle", "happy",
	"lucky", "quick", "quiet", "sunny", "swift", "witty",
}

var nicknameAnimals = []string{
	"badger", "crane", "dolphin", "falcon", "koala", "lynx",
	"otter", "panda", "rabbit", "tiger", "walrus", "wombat",
}

var nicknameRnd = rand.New(rand.NewSource(time.Now().UnixNano()))
var nicknameMu sync.Mutex

// GenerateNickname produces a readable default display name for a freshly
// created profile, e.g. "quick-otter-41".
func GenerateNickname() string {
	nicknameMu.Lock()
	defer nicknameMu.Unlock()
	adj := nicknameAdjectives[nicknameRnd.Intn(len(nicknameAdjectives))]
	animal := nicknameAnimals[nicknameRnd.Intn(len(nicknameAnimals))]
	n := nicknameRnd.Intn(90) + 10
	return adj + "-" + animal + "-" + strconv.Itoa(n)
}
