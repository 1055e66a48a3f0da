package analytics

import (
	"testing"

	"github.com/goliatone/go-analytics/pkg/props"
)

func TestPeopleUpdatesBeforeIdentifyAreMerged(t *testing.T) {
	client, recorder := newTestClient(t)
	people := client.People()
	if people.IsIdentified() {
		t.Fatalf("expected an unidentified profile")
	}

	people.Set("name", props.String("Ada"))
	updates := recorder.ProfileUpdates()
	if len(updates) != 1 || !updates[0].Anonymous || updates[0].Message.Has("$distinct_id") {
		t.Fatalf("expected one anonymous update, got %+v", updates)
	}

	people.Identify("user-42")
	if people.DistinctID() != "user-42" {
		t.Fatalf("expected people id user-42, got %q", people.DistinctID())
	}
	merges := recorder.PendingMerges()
	if len(merges) != 1 || merges[0].DistinctID != "user-42" {
		t.Fatalf("expected a pending merge for user-42, got %+v", merges)
	}
	merged := recorder.ProfileUpdates()[0]
	if merged.Anonymous || merged.DistinctID != "user-42" {
		t.Fatalf("expected anonymous update to be merged, got %+v", merged)
	}

	people.Increment("logins", 1)
	last := recorder.ProfileUpdates()[1]
	if last.Action != "$add" || stringProp(t, last.Message, "$distinct_id") != "user-42" {
		t.Fatalf("unexpected increment update %+v", last)
	}
}

func TestPeopleSetIncludesDeviceInfo(t *testing.T) {
	client, recorder := newTestClient(t, WithConfig(Config{
		AppVersion: "2.0",
		DeviceInfo: map[string]string{"$os": "linux"},
	}))
	client.People().Set("name", props.String("Ada"))

	update := recorder.ProfileUpdates()[0]
	payload, _ := update.Message.Get("$set")
	set, ok := payload.AsMap()
	if !ok {
		t.Fatalf("expected $set payload map, got %s", payload.Kind())
	}
	for _, key := range []string{"$lib_version", "$app_version", "$os", "name"} {
		if !set.Has(key) {
			t.Fatalf("expected %q in $set payload %v", key, set.Keys())
		}
	}
}

func TestPeopleWithIdentity(t *testing.T) {
	client, recorder := newTestClient(t)
	if client.People().WithIdentity("") != nil {
		t.Fatalf("expected nil handle for an empty id")
	}
	fixed := client.People().WithIdentity("user-7")
	fixed.Identify("user-8")
	if fixed.DistinctID() != "user-7" {
		t.Fatalf("expected fixed id to stay user-7")
	}
	if len(recorder.PendingMerges()) != 0 {
		t.Fatalf("expected identify on a fixed handle to be rejected")
	}

	fixed.TrackCharge(9.99, mustProps(t, "sku", "A1"))
	update := recorder.ProfileUpdates()[0]
	if update.Action != "$append" || update.DistinctID != "user-7" {
		t.Fatalf("unexpected charge update %+v", update)
	}
	payload, _ := update.Message.Get("$append")
	appended, _ := payload.AsMap()
	transactions, _ := appended.Get("$transactions")
	charge, _ := transactions.AsMap()
	if !charge.Has("$amount") || !charge.Has("$time") || !charge.Has("sku") {
		t.Fatalf("unexpected transaction %v", charge.Keys())
	}
}
