package broker

import (
	"strings"

	"go.uber.org/zap"
)

// State is a step in the onboarding state machine (spec.md §4.3.1).
type State int

const (
	NeedName State = iota
	NeedPasswordCreate
	NeedPasswordLogin
	NeedBotDisclosure
	NeedPublicAck
	NeedCocAck
	NeedRace
	NeedClass
	NeedSex
	NeedPronouns
	InWorld
)

var cocLines = []string{
	"1. nothing illegal",
	"2. hard R for violence, hard PG for sex/nudity",
	"3. no soliciting",
	"4. anything you submit - consider it publicly licensed and publicly published",
	"5. don't spam",
	"6. prioritize great experiences for humans",
	"7. don't lie about being a bot",
	"8. zero privacy (except passwords): we will share logs with various folks and train our models on them",
}

var raceTokens = []string{
	"dragonborn", "dwarf", "elf", "gnome", "goliath", "halfling", "human", "orc", "tiefling",
}

var classTokens = []string{
	"barbarian", "bard", "cleric", "druid", "fighter", "monk", "paladin", "ranger", "rogue", "sorcerer", "warlock", "wizard",
}

func allowedToken(s string, allowed []string) bool {
	for _, a := range allowed {
		if a == s {
			return true
		}
	}
	return false
}

// build holds the onboarding fields accumulated across states, handed off
// to ATTACH once InWorld is reached.
type build struct {
	name     string
	isBot    bool
	auth     []byte
	race     string
	class    string
	sex      string
	pronouns string
}

// step advances c's onboarding state machine by one input line. Blank
// lines are ignored; invalid input re-prints the current prompt. It never
// blocks on I/O — writes go through c.send, password-echo toggling
// through c.setPasswordEcho.
func (c *clientConn) step(lineBytes []byte) {
	switch c.state {
	case NeedName:
		c.stepName(strings.TrimSpace(string(lineBytes)))
	case NeedPasswordCreate:
		c.stepPasswordCreate(lineBytes)
	case NeedPasswordLogin:
		c.stepPasswordLogin(lineBytes)
	case NeedBotDisclosure:
		c.stepBotDisclosure(strings.TrimSpace(string(lineBytes)))
	case NeedPublicAck:
		c.stepPublicAck(strings.TrimSpace(string(lineBytes)))
	case NeedCocAck:
		c.stepCocAck(strings.TrimSpace(string(lineBytes)))
	case NeedRace:
		c.stepRace(strings.ToLower(strings.TrimSpace(string(lineBytes))))
	case NeedClass:
		c.stepClass(strings.ToLower(strings.TrimSpace(string(lineBytes))))
	case NeedSex:
		c.stepSex(strings.ToLower(strings.TrimSpace(string(lineBytes))))
	case NeedPronouns:
		c.stepPronouns(strings.TrimSpace(string(lineBytes)))
	}
}

func sanitizeName(s string) string {
	var out strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if out.Len() >= 20 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func (c *clientConn) stepName(line string) {
	if line == "" {
		return
	}
	name := sanitizeName(line)
	if name == "" {
		c.send("bad name (use letters/numbers/_/-, max 20)\r\nname: ")
		return
	}
	c.build.name = name
	c.setPasswordEcho(true)
	if c.accounts.Exists(name) {
		c.state = NeedPasswordLogin
		c.send("\r\npassword (never logged/echoed): ")
	} else {
		c.state = NeedPasswordCreate
		c.send("\r\nset password (never logged/echoed; min 8 chars): ")
	}
}

func (c *clientConn) stepPasswordCreate(lineBytes []byte) {
	pw := strings.TrimSpace(string(lineBytes))
	c.setPasswordEcho(false)
	if len(pw) < 8 {
		c.setPasswordEcho(true)
		c.send("\r\npassword too short\r\nset password (min 8 chars): ")
		return
	}
	c.send("\r\n")
	if err := c.accounts.Create(c.build.name, pw, c.now()); err != nil {
		c.log.Error("account create failed", zap.Error(err))
		c.send("account creation failed\r\nbye\r\n")
		c.bye = true
		return
	}
	if err := c.mintAuthIfConfigured(); err != nil {
		c.send("\r\nauth service unavailable\r\nbye\r\n")
		c.bye = true
		return
	}
	c.advanceToBotDisclosure()
}

func (c *clientConn) stepPasswordLogin(lineBytes []byte) {
	pw := strings.TrimSpace(string(lineBytes))
	ok := c.accounts.Verify(c.build.name, pw)
	c.setPasswordEcho(false)
	if !ok {
		c.setPasswordEcho(true)
		c.send("\r\nbad password\r\npassword: ")
		return
	}
	c.send("\r\n")
	if err := c.mintAuthIfConfigured(); err != nil {
		c.send("\r\nauth service unavailable\r\nbye\r\n")
		c.bye = true
		return
	}
	c.advanceToBotDisclosure()
}

func (c *clientConn) advanceToBotDisclosure() {
	c.state = NeedBotDisclosure
	c.send("character creation (step 2/7)\r\nare you using automation?\r\ntype: human | bot\r\n> ")
}

func (c *clientConn) stepBotDisclosure(line string) {
	if line == "" {
		return
	}
	switch strings.ToLower(line) {
	case "human":
		c.build.isBot = false
	case "bot":
		c.build.isBot = true
	default:
		c.send("please type: human | bot\r\n> ")
		return
	}
	c.state = NeedPublicAck
	c.send("character creation (step 3/7)\r\ncontent + licensing:\r\n" +
		"- anything you submit - consider it publicly licensed and publicly published\r\n" +
		"- zero privacy: logs may be shared and used for training\r\n" +
		"- exception: passwords are never logged/echoed; only password hashes are stored\r\n" +
		"type: agree\r\n> ")
}

func (c *clientConn) stepPublicAck(line string) {
	if line == "" {
		return
	}
	if strings.ToLower(line) != "agree" {
		c.send("type: agree\r\n> ")
		return
	}
	c.state = NeedCocAck
	var b strings.Builder
	b.WriteString("character creation (step 4/7)\r\ncode of conduct:\r\n")
	for _, li := range cocLines {
		b.WriteString(li)
		b.WriteString("\r\n")
	}
	b.WriteString("type: agree\r\n> ")
	c.send(b.String())
}

func (c *clientConn) stepCocAck(line string) {
	if line == "" {
		return
	}
	if strings.ToLower(line) != "agree" {
		c.send("type: agree\r\n> ")
		return
	}
	c.state = NeedRace
	c.send("character creation (step 5/7)\r\nchoose race:\r\ntype: race list | race <name>\r\n> ")
}

func (c *clientConn) stepRace(line string) {
	if line == "" {
		return
	}
	if line == "race list" || line == "list" {
		var b strings.Builder
		b.WriteString("races:\r\n")
		for _, r := range raceTokens {
			b.WriteString(" - ")
			b.WriteString(r)
			b.WriteString("\r\n")
		}
		b.WriteString("> ")
		c.send(b.String())
		return
	}
	token := strings.TrimPrefix(line, "race ")
	if !allowedToken(token, raceTokens) {
		c.send("huh? (try: race list | race human)\r\n> ")
		return
	}
	c.build.race = token
	c.state = NeedClass
	c.send("character creation (step 6/7)\r\nchoose class:\r\ntype: class list | class <name>\r\n> ")
}

func (c *clientConn) stepClass(line string) {
	if line == "" {
		return
	}
	if line == "class list" || line == "list" {
		var b strings.Builder
		b.WriteString("classes:\r\n")
		for _, cl := range classTokens {
			b.WriteString(" - ")
			b.WriteString(cl)
			b.WriteString("\r\n")
		}
		b.WriteString("> ")
		c.send(b.String())
		return
	}
	token := strings.TrimPrefix(line, "class ")
	if !allowedToken(token, classTokens) {
		c.send("huh? (try: class list | class fighter)\r\n> ")
		return
	}
	c.build.class = token
	c.state = NeedSex
	c.send("character creation (step 7/7)\r\nsex:\r\ntype: male | female | none | other\r\n> ")
}

func (c *clientConn) stepSex(line string) {
	if line == "" {
		return
	}
	switch line {
	case "male":
		c.build.sex, c.build.pronouns = "male", "he"
	case "female":
		c.build.sex, c.build.pronouns = "female", "she"
	case "none":
		c.build.sex, c.build.pronouns = "none", "they"
	case "other":
		c.build.sex = "other"
		c.state = NeedPronouns
		c.send("pronouns (en): he | she | they\r\n(type: he)\r\n> ")
		return
	default:
		c.send("please type: male | female | none | other\r\n> ")
		return
	}
	c.finishOnboarding()
}

func (c *clientConn) stepPronouns(line string) {
	key, ok := normalizePronouns(c.locale, line)
	if !ok {
		c.send("huh? (pronouns: he | she | they)\r\n> ")
		return
	}
	c.build.pronouns = key
	c.finishOnboarding()
}

func (c *clientConn) finishOnboarding() {
	c.state = InWorld
	c.attachReady = true
}

