package entities

import "testing"

func TestDelegationEdgeAppliesTo(t *testing.T) {
	global := DelegationEdge{FollowerID: "bob", LeaderID: "alice"}
	if !global.AppliesTo("cat-health") {
		t.Fatalf("global edge must cover any category")
	}
	if !global.AppliesTo("") {
		t.Fatalf("global edge must cover category-less polls")
	}

	scoped := DelegationEdge{FollowerID: "bob", LeaderID: "alice", CategoryIDs: []string{"cat-health", "cat-finance"}}
	if !scoped.AppliesTo("cat-finance") {
		t.Fatalf("scoped edge must cover its categories")
	}
	if scoped.AppliesTo("cat-energy") {
		t.Fatalf("scoped edge must not cover other categories")
	}
	if scoped.AppliesTo("") {
		t.Fatalf("scoped edge must not cover category-less polls")
	}
}

func TestVoteDirect(t *testing.T) {
	if !(Vote{UserID: "alice"}).Direct() {
		t.Fatalf("vote without a delegate must be direct")
	}
	if (Vote{UserID: "bob", DelegateID: "alice"}).Direct() {
		t.Fatalf("vote with a delegate must be inherited")
	}
}
