package rules

// Rule ids of the TON starter pack.
const (
	IDBounce = "TON-BOUNCE-001"
	IDAuth   = "TON-AUTH-001"
	IDGas    = "TON-GAS-001"
	IDExt    = "TON-EXT-001"
	IDSend   = "TON-SEND-001"
)

var tonDefinitions = []Definition{
	{
		ID:          IDBounce,
		Severity:    SeverityHigh,
		Title:       "Missing bounced-message handling on state-changing flow",
		Description: "Flags contracts that write persistent state but never inspect the bounced flag or handle bounced messages. A failed outgoing transfer bounces back; without a handler the state change it was paired with is never rolled back.",
		Message:     "State mutation without explicit bounced-message handling",
		Indicators: []string{
			`set_data`,
			`save_data`,
			`total_supply\s*[+\-]=`,
			`store_`,
		},
		Mitigations: []string{
			`flags\s*&\s*1`,
			`bounc`,
			`0xffffffff`,
		},
	},
	{
		ID:          IDAuth,
		Severity:    SeverityCritical,
		Title:       "Privileged operation without sender authorization check",
		Description: "Flags contracts that mention privileged operations (mint, burn, code upgrade, owner/admin handling) but contain no visible comparison of the message sender against a stored authority.",
		Message:     "Potential privileged path without clear sender authorization",
		Indicators: []string{
			`mint`,
			`burn`,
			`set_code`,
			`upgrade`,
			`owner`,
			`admin`,
		},
		Mitigations: []string{
			`equal_slice_bits\(`,
			`sender\(\)`,
			`throw_unless\([^\n]*unauthor`,
			`require\([^\n]*owner`,
			`require\([^\n]*admin`,
		},
	},
	{
		ID:          IDGas,
		Severity:    SeverityMedium,
		Title:       "No explicit gas/value validation before heavy compute/send",
		Description: "Flags contracts that send outbound messages without checking the incoming value, reserving balance, or computing fees first. An underfunded message can drain the contract balance to pay forwarding fees.",
		Message:     "Cross-contract send path without visible gas/value checks",
		Indicators: []string{
			`send_raw_message`,
			`message\(`,
			`send\(`,
		},
		Mitigations: []string{
			`msg_value\s*[<>=]`,
			`context\(\)\.value`,
			`throw_unless\([^\n]*gas`,
			`getComputeFee`,
			`raw_reserve`,
			`nativeReserve`,
		},
		Anchor: "send",
	},
	{
		ID:          IDExt,
		Severity:    SeverityHigh,
		Title:       "External entry path without replay/seqno protection",
		Description: "Flags contracts that accept external (inbound, unsigned-by-sender) messages but never check a sequence number or signature, which allows the same message to be replayed.",
		Message:     "External message handler without replay/signature checks",
		Indicators: []string{
			`recv_external`,
			`onExternalMessage`,
		},
		Mitigations: []string{
			`seqno`,
			`check_signature`,
			`signature`,
		},
		Anchor: "recv_external",
	},
	{
		ID:          IDSend,
		Severity:    SeverityMedium,
		Title:       "Potentially unsafe send mode usage",
		Description: "Flags explicit balance-draining (mode 128) or error-ignoring (+2) send modes when the contract never reserves a minimum balance beforehand.",
		Message:     "Send mode carries the whole balance or ignores errors without a balance reserve",
		Indicators: []string{
			`send_raw_message\s*\([^;\n]*,\s*(128|130|160|162)\s*\)`,
			`SendRemainingBalance`,
			`SendIgnoreErrors`,
			`SEND_MODE_CARRY_ALL_BALANCE`,
			`SEND_MODE_IGNORE_ERRORS`,
		},
		Mitigations: []string{
			`raw_reserve`,
			`nativeReserve`,
			`reserveToncoinsOnBalance`,
		},
		Anchor: "send_raw_message",
	},
}

var builtin = mustCatalog(tonDefinitions)

// Builtin returns the catalog compiled into this build.
func Builtin() *Catalog {
	return builtin
}

func mustCatalog(defs []Definition) *Catalog {
	rs := make([]Rule, 0, len(defs))
	for _, d := range defs {
		rs = append(rs, MustRule(d))
	}
	c, err := NewCatalog(rs...)
	if err != nil {
		panic(err)
	}
	return c
}
