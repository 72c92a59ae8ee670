/*
NAME
  resolver_test.go

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package resolver

import (
	"testing"

	"github.com/ausocean/tscut/internal/lookup"
	"github.com/ausocean/tscut/internal/mts"
	"github.com/ausocean/tscut/internal/psi"
)

type nopLogger struct{}

func (nopLogger) SetLevel(int8)                                         {}
func (nopLogger) Log(level int8, message string, params ...interface{}) {}
func (nopLogger) Debug(msg string, params ...interface{})               {}
func (nopLogger) Info(msg string, params ...interface{})                {}
func (nopLogger) Warning(msg string, params ...interface{})             {}
func (nopLogger) Error(msg string, params ...interface{})               {}
func (nopLogger) Fatal(msg string, params ...interface{})               {}

// patPacket builds a 188-byte PAT packet (PID 0, PUSI=1) listing the one
// given program, in the style of the reference standard PAT section.
func patPacket(t *testing.T, tsid uint16, programNumber, pmtPid uint16) []byte {
	t.Helper()
	section := []byte{
		0x00, 0xb0, 0x0d,
		byte(tsid >> 8), byte(tsid),
		0xc1,
		0x00, 0x00,
		byte(programNumber >> 8), byte(programNumber),
		0xe0 | byte(pmtPid>>8), byte(pmtPid),
	}
	full := psi.AddCRC(section)

	b := make([]byte, mts.PacketSize)
	b[0] = 0x47
	b[1] = 0x40
	b[3] = 0x10
	b[4] = 0x00 // pointer_field
	copy(b[5:], full)
	return b
}

func TestResolverOnlyAdmitsSeededProgram(t *testing.T) {
	table := lookup.New(2)
	r := New(table, 2, nopLogger{})

	raw := patPacket(t, 1, 1, 0x100) // program 1, not seeded
	pkt, err := mts.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r.HandlePAT(pkt)

	if _, ok := table.PmtPid(2); ok {
		t.Error("unseeded program's pat must not resolve program 2")
	}
}

func TestResolverCachesRewrittenPAT(t *testing.T) {
	table := lookup.New(1)
	r := New(table, 1, nopLogger{})

	raw := patPacket(t, 7, 1, 0x1000)
	pkt, err := mts.Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r.HandlePAT(pkt)

	pmtPid, ok := table.PmtPid(1)
	if !ok || pmtPid != 0x1000 {
		t.Fatalf("PmtPid(1) = (%#x, %v), want (0x1000, true)", pmtPid, ok)
	}
	if table.PAT(1) == nil {
		t.Fatal("expected a cached rewritten pat packet")
	}
	if len(table.PAT(1)) != mts.PacketSize {
		t.Fatalf("cached pat length = %d, want %d", len(table.PAT(1)), mts.PacketSize)
	}
}

func TestResolverIgnoresSecondPAT(t *testing.T) {
	table := lookup.New(1)
	r := New(table, 1, nopLogger{})

	first := patPacket(t, 1, 1, 0x1000)
	pkt1, _ := mts.Parse(first)
	r.HandlePAT(pkt1)

	second := patPacket(t, 1, 1, 0x2000)
	pkt2, _ := mts.Parse(second)
	r.HandlePAT(pkt2)

	pmtPid, _ := table.PmtPid(1)
	if pmtPid != 0x1000 {
		t.Errorf("PmtPid(1) = %#x, want 0x1000 (second pat must be ignored)", pmtPid)
	}
}
