package ble

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestFakeAdapterConsumesConnectErrors(t *testing.T) {
	errDown := errors.New("device unreachable")
	adapter := NewFakeAdapter(5, errDown, nil, errDown)

	ctx := context.Background()
	if _, err := adapter.Connect(ctx, "AA:BB:CC:DD:EE:FF"); !errors.Is(err, errDown) {
		t.Fatalf("Connect #1 error = %v, want %v", err, errDown)
	}
	if _, err := adapter.Connect(ctx, "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Connect #2 error = %v, want nil", err)
	}
	if _, err := adapter.Connect(ctx, "AA:BB:CC:DD:EE:FF"); !errors.Is(err, errDown) {
		t.Fatalf("Connect #3 error = %v, want %v", err, errDown)
	}
	if _, err := adapter.Connect(ctx, "AA:BB:CC:DD:EE:FF"); err != nil {
		t.Fatalf("Connect #4 error = %v, want nil", err)
	}

	if got := adapter.Attempts(); got != 4 {
		t.Errorf("Attempts() = %d, want 4", got)
	}
	if got := len(adapter.Connections()); got != 2 {
		t.Errorf("len(Connections()) = %d, want 2", got)
	}
}

func TestFakeConnectionCharacteristics(t *testing.T) {
	conn := NewFakeConnection(11)

	facets, err := conn.DiscoverCharacteristic(ServiceUUID, FacetsCharUUID)
	if err != nil {
		t.Fatalf("DiscoverCharacteristic(FACETS) error = %v", err)
	}
	got, err := facets.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, []byte{11}) {
		t.Errorf("Read() = %v, want [11]", got)
	}

	password, err := conn.DiscoverCharacteristic(ServiceUUID, PasswordCharUUID)
	if err != nil {
		t.Fatalf("DiscoverCharacteristic(PASSWORD) error = %v", err)
	}
	if err := password.Write([]byte("000000")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	writes := conn.Password.Writes()
	if len(writes) != 1 || string(writes[0]) != "000000" {
		t.Errorf("password writes = %q, want [000000]", writes)
	}

	if _, err := conn.DiscoverCharacteristic(ServiceUUID, AccelDataCharUUID); err == nil {
		t.Error("DiscoverCharacteristic(ACCEL_DATA) should fail on the fake")
	}
}

func TestFakeNotificationsAndDisconnect(t *testing.T) {
	conn := NewFakeConnection(0)

	var got [][]byte
	if err := conn.Facets.Subscribe(func(data []byte) { got = append(got, data) }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	select {
	case <-conn.Facets.Subscribed():
	default:
		t.Fatal("Subscribed() should be closed after Subscribe")
	}

	conn.Facets.SimulateNotification([]byte{7})
	conn.Facets.SimulateNotification([]byte{9})
	if len(got) != 2 || got[0][0] != 7 || got[1][0] != 9 {
		t.Errorf("notifications = %v, want [[7] [9]]", got)
	}

	fired := false
	conn.OnDisconnect(func() { fired = true })
	conn.SimulateDisconnect()
	if !fired {
		t.Error("SimulateDisconnect should invoke the OnDisconnect callback")
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := normalizeAddress("aa:bb:cc:dd:ee:ff"); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("normalizeAddress() = %q", got)
	}
}

func TestTinyGoTypesImplementInterfaces(t *testing.T) {
	var _ Adapter = (*TinyGoAdapter)(nil)
	var _ Connection = (*tinyGoConnection)(nil)
	var _ Characteristic = (*tinyGoCharacteristic)(nil)
}

func TestFakeAdapterEnableFailures(t *testing.T) {
	a := NewFakeAdapter(0)
	a.EnableErr = errors.New("adapter off")
	a.EnableFailures = 1
	if err := a.Enable(); err == nil {
		t.Error("first Enable() should fail")
	}
	if err := a.Enable(); err != nil {
		t.Errorf("second Enable() error = %v", err)
	}
	if got := a.EnableCalls(); got != 2 {
		t.Errorf("EnableCalls() = %d, want 2", got)
	}
}
