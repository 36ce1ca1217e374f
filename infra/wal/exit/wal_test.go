package exit

import "testing"

func TestOutboxLifecycle(t *testing.T) {
	o, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	defer o.Close()

	if err := o.PutNew(1, []byte("trade-1")); err != nil {
		t.Fatal(err)
	}
	if err := o.PutNew(2, []byte("trade-2")); err != nil {
		t.Fatal(err)
	}

	rec, err := o.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateNew || string(rec.Payload) != "trade-1" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if err := o.MarkSent(1); err != nil {
		t.Fatal(err)
	}
	if err := o.MarkAcked(1); err != nil {
		t.Fatal(err)
	}

	var pending []uint64
	err = o.ScanPending(func(rec Record) error {
		pending = append(pending, rec.Seq)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0] != 2 {
		t.Fatalf("expected only seq 2 pending, got %v", pending)
	}
}

func TestOutboxScanOrder(t *testing.T) {
	o, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	// Insert out of order; the scan must come back in sequence order.
	for _, seq := range []uint64{30, 10, 20} {
		if err := o.PutNew(seq, []byte("p")); err != nil {
			t.Fatal(err)
		}
	}

	var got []uint64
	_ = o.ScanPending(func(rec Record) error {
		got = append(got, rec.Seq)
		return nil
	})
	want := []uint64{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestOutboxTruncateAcked(t *testing.T) {
	o, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	for seq := uint64(1); seq <= 5; seq++ {
		_ = o.PutNew(seq, []byte("p"))
	}
	for seq := uint64(1); seq <= 3; seq++ {
		_ = o.MarkAcked(seq)
	}

	n, err := o.TruncateAckedUpTo(2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 truncated, got %d", n)
	}
	if _, err := o.Get(1); err == nil {
		t.Fatal("expected seq 1 to be gone")
	}
	if rec, err := o.Get(3); err != nil || rec.State != StateAcked {
		t.Fatalf("seq 3 should survive as ACKED, got %+v err %v", rec, err)
	}
}

func TestOutboxFailedIsRetried(t *testing.T) {
	o, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer o.Close()

	_ = o.PutNew(7, []byte("p"))
	_ = o.MarkSent(7)
	_ = o.MarkFailed(7)

	rec, err := o.Get(7)
	if err != nil {
		t.Fatal(err)
	}
	if rec.State != StateFailed || rec.Retries != 2 {
		t.Fatalf("unexpected record after failure: %+v", rec)
	}

	seen := false
	_ = o.ScanPending(func(rec Record) error {
		if rec.Seq == 7 {
			seen = true
		}
		return nil
	})
	if !seen {
		t.Fatal("failed record should appear in pending scan")
	}
}
