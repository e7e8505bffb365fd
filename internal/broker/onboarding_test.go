package broker

import (
	"net"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/fanzynoodle/slopmud/internal/config"
)

// newTestConn builds a clientConn wired to one end of an in-memory pipe,
// with the other end left for the test to drive as the "client" socket.
func newTestConn(t *testing.T) (*clientConn, net.Conn) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	t.Cleanup(func() { serverSide.Close(); clientSide.Close() })

	accounts, err := LoadAccounts(filepath.Join(t.TempDir(), "accounts.json"))
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	srv := &Server{
		cfg:      &config.BrokerConfig{Locale: "en"},
		log:      zap.NewNop(),
		accounts: accounts,
	}
	c := newClientConn(serverSide, srv)
	return c, clientSide
}

func TestStepNameRejectsUnsanitizableInput(t *testing.T) {
	c, _ := newTestConn(t)
	c.stepName("!!!")
	if c.state != NeedName {
		t.Errorf("state = %v, want NeedName after an unsanitizable name", c.state)
	}
}

func TestStepNameRoutesNewAccountToPasswordCreate(t *testing.T) {
	c, _ := newTestConn(t)
	c.stepName("newplayer")
	if c.state != NeedPasswordCreate {
		t.Errorf("state = %v, want NeedPasswordCreate for an unknown name", c.state)
	}
	if c.build.name != "newplayer" {
		t.Errorf("build.name = %q, want %q", c.build.name, "newplayer")
	}
}

func TestStepNameRoutesExistingAccountToPasswordLogin(t *testing.T) {
	c, _ := newTestConn(t)
	if err := c.accounts.Create("oldplayer", "hunter22222", 1); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	c.stepName("oldplayer")
	if c.state != NeedPasswordLogin {
		t.Errorf("state = %v, want NeedPasswordLogin for a known name", c.state)
	}
}

func TestStepPasswordCreateRejectsShortPassword(t *testing.T) {
	c, _ := newTestConn(t)
	c.stepName("shortpw")
	c.stepPasswordCreate([]byte("short"))
	if c.state != NeedPasswordCreate {
		t.Errorf("state = %v, want still NeedPasswordCreate after a too-short password", c.state)
	}
	if c.accounts.Exists("shortpw") {
		t.Error("account should not have been created with a too-short password")
	}
}

func TestSexDefaultsPronounsAndFinishesOnboarding(t *testing.T) {
	c, _ := newTestConn(t)
	c.build.name = "aria"
	c.state = NeedSex
	c.stepSex("female")
	if c.build.pronouns != "she" {
		t.Errorf("pronouns = %q, want %q", c.build.pronouns, "she")
	}
	if c.state != InWorld {
		t.Errorf("state = %v, want InWorld", c.state)
	}
}

func TestSexOtherRoutesToPronounsStep(t *testing.T) {
	c, _ := newTestConn(t)
	c.state = NeedSex
	c.stepSex("other")
	if c.state != NeedPronouns {
		t.Errorf("state = %v, want NeedPronouns", c.state)
	}

	c.stepPronouns("they")
	if c.build.pronouns != "they" {
		t.Errorf("pronouns = %q, want %q", c.build.pronouns, "they")
	}
	if c.state != InWorld {
		t.Errorf("state = %v, want InWorld", c.state)
	}
}

func TestStepRaceRejectsUnknownToken(t *testing.T) {
	c, _ := newTestConn(t)
	c.state = NeedRace
	c.stepRace("martian")
	if c.state != NeedRace {
		t.Errorf("state = %v, want still NeedRace for an unknown race token", c.state)
	}
}

func TestStepRaceAcceptsKnownToken(t *testing.T) {
	c, _ := newTestConn(t)
	c.state = NeedRace
	c.stepRace("race elf")
	if c.build.race != "elf" {
		t.Errorf("build.race = %q, want %q", c.build.race, "elf")
	}
	if c.state != NeedClass {
		t.Errorf("state = %v, want NeedClass", c.state)
	}
}
