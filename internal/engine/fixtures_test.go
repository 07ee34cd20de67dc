package engine

import (
	"os"
	"path/filepath"
	"testing"
)

// Contract sources used across the engine tests. Each one trips exactly the
// rules named in its comment.
const (
	// TON-BOUNCE-001
	bounceContract = `() recv_internal(int msg_value, cell in_msg_full, slice in_msg_body) impure {
  var ds = get_data().begin_parse();
  int counter = ds~load_uint(32);
  set_data(begin_cell().store_uint(counter + 1, 32).end_cell());
}
`

	// TON-AUTH-001
	mintContract = `() mint(int amount) impure {
  throw_if(73, amount == 0);
}
`

	// TON-AUTH-001, TON-GAS-001 (anchored on line 4)
	mintAndSendContract = `() recv_internal(slice in_msg_body) impure {
  int op = in_msg_body~load_uint(32);
  if (op == 21) { ;; mint
    send_raw_message(msg, 1);
  }
}
`

	// nothing: the external handler checks a seqno
	externalWithSeqno = `() recv_external(slice in_msg) impure {
  int seqno = in_msg~load_uint(32);
  throw_unless(33, seqno == stored_seqno);
}
`

	// TON-EXT-001 (anchored on line 2)
	externalNoReplay = `;; wallet
() recv_external(slice in_msg) impure {
  commit();
}
`

	// TON-GAS-001, TON-SEND-001 (both anchored on line 2)
	drainContract = `() withdraw(cell msg) impure {
  send_raw_message(msg, 128);
}
`

	// nothing: the balance is reserved before the send
	drainWithReserve = `() withdraw(cell msg) impure {
  raw_reserve(1000000, 0);
  send_raw_message(msg, 128);
}
`

	// TON-GAS-001 only: mode 64 is not a draining mode
	forwardContract = `() forward(cell msg) impure {
  send_raw_message(msg, 64);
}
`

	// TON-GAS-001 (line 3), TON-SEND-001 (no send_raw_message, line 1)
	tactDrainContract = `contract Vault {
    receive("withdraw") {
        send(SendParameters{to: sender(), value: 0, mode: SendRemainingBalance});
    }
}
`

	// nothing
	cleanContract = `int add(int a, int b) inline {
  return a + b;
}
`
)

// writeTree creates files (relative path -> content) under a fresh temp dir
// and returns the dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
