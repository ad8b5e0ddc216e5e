// Package voteengine implements the vote write path of the decision core.
//
// The module owns the vote submission state machine (poll/choice validation,
// delegate authorization, direct-vote protection) and the propagation engine
// that materializes inherited votes for transitive followers after every
// successful write. Business rules live in application/domain layers;
// storage and transport concerns stay behind ports and adapters.
package voteengine
