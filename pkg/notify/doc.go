/*
Package notify writes inbox messages for the two human roles.

Inboxes are directories of plain text files. The escalation engine
drops alert and lockdown messages into the director inbox; either role
reads its own inbox through the CLI. File names embed a compact
timestamp so a plain name sort is chronological.

	inbox/director/escalation_7_20260314_092653.txt
	inbox/director/LOCKDOWN_20260315_110210.txt

The message bodies include the exact commands the director needs next
(ack, resolve, recovery verify/confirm); during an incident nobody
should have to look up syntax.

Messages are addressed by 1-based position in the sorted listing, which
is how the inbox read command refers to them.

# Integration Points

  - pkg/escalation: EscalationAlert on create and promote,
    LockdownAlert on automatic lockdown
  - cmd/institute: inbox list / inbox read
*/
package notify
