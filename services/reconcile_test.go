package services

import (
	"context"
	"reflect"
	"testing"

	"github.com/GrainArc/DropMap/models"
)

func newTestReconciler() (*Reconciler, *memStorage) {
	store := &memStorage{}
	return NewReconciler(NewItemService(store, NewItemCache(SearchTTL))), store
}

func fiveItems() []models.FoundItem {
	return []models.FoundItem{
		{Title: "Wallet", Description: "black leather", Latitude: 35.0, Longitude: 139.0},
		{Title: "Umbrella", Description: "blue", Latitude: 35.1, Longitude: 139.1},
		{Title: "Keys", Description: "three keys on a ring", Latitude: 35.2, Longitude: 139.2},
		{Title: "Phone", Description: "cracked screen", Latitude: 35.3, Longitude: 139.3},
		{Title: "Scarf", Description: "red wool", Latitude: 35.4, Longitude: 139.4},
	}
}

// reportFor 模拟浏览器按当前状态渲染后原样回报视角
func reportFor(state models.ViewState) *MapReport {
	center := state.MapCenter
	zoom := state.MapZoom
	return &MapReport{Center: &center, Zoom: &zoom, Version: state.ViewVersion}
}

func TestClickCopiesCoordinatesIntoForm(t *testing.T) {
	r, _ := newTestReconciler()
	ctx := context.Background()
	state := models.NewViewState()

	report := reportFor(state)
	report.LastClicked = &models.LatLng{Lat: 40.0, Lng: -73.9}
	state, frame := r.Run(ctx, state, Interaction{Kind: EventMap, Map: report})

	if state.FormLat != 40.0 || state.FormLon != -73.9 {
		t.Fatalf("form coordinates = (%v, %v)", state.FormLat, state.FormLon)
	}
	if frame.Form.Latitude != 40.0 || frame.Form.Longitude != -73.9 {
		t.Fatalf("rendered form = %+v", frame.Form)
	}
	if state.LastClick == nil || *state.LastClick != (models.LatLng{Lat: 40.0, Lng: -73.9}) {
		t.Fatalf("last click not recorded: %v", state.LastClick)
	}

	// the same click reported again must not overwrite coordinates edited since
	state.FormLat, state.FormLon = 1, 2
	state, _ = r.Run(ctx, state, Interaction{Kind: EventMap, Map: report})
	if state.FormLat != 1 || state.FormLon != 2 {
		t.Fatalf("duplicate click overwrote form: (%v, %v)", state.FormLat, state.FormLon)
	}
}

func TestSelectRowRecentersMap(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)
	ctx := context.Background()

	state, _ := r.Run(ctx, models.NewViewState(), Interaction{Kind: EventLoad})
	state, frame := r.Run(ctx, state, Interaction{Kind: EventSelect, Selection: []int{2}, Map: reportFor(state)})

	want := models.LatLng{Lat: 35.2, Lng: 139.2}
	if state.MapCenter != want || state.MapZoom != models.SelectedZoom {
		t.Fatalf("map = %v zoom %d, want %v zoom 16", state.MapCenter, state.MapZoom, want)
	}
	if frame.Map.Center != want || frame.Map.Zoom != models.SelectedZoom {
		t.Fatalf("rendered map = %+v", frame.Map)
	}
	if !reflect.DeepEqual(state.LastSelection, []int{2}) {
		t.Fatalf("last selection = %v", state.LastSelection)
	}
	if frame.Passes != 2 {
		t.Fatalf("expected selection to trigger one rerun, got %d passes", frame.Passes)
	}
}

func TestStalePanDoesNotUndoSelection(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)
	ctx := context.Background()

	state, _ := r.Run(ctx, models.NewViewState(), Interaction{Kind: EventLoad})
	stale := reportFor(state)
	stale.Center = &models.LatLng{Lat: 10, Lng: 10}

	state, _ = r.Run(ctx, state, Interaction{Kind: EventSelect, Selection: []int{1}})
	selected := models.LatLng{Lat: 35.1, Lng: 139.1}
	if state.MapCenter != selected {
		t.Fatalf("after selection center = %v", state.MapCenter)
	}

	// pan captured before the selection arrives late
	state, _ = r.Run(ctx, state, Interaction{Kind: EventMap, Selection: []int{1}, Map: stale})
	if state.MapCenter != selected {
		t.Fatalf("stale pan undid selection: center = %v", state.MapCenter)
	}

	// pan made on the recentered map is kept
	pan := reportFor(state)
	pan.Center = &models.LatLng{Lat: 36.0, Lng: 140.0}
	pan.Zoom = ptr(14)
	version := state.ViewVersion
	state, frame := r.Run(ctx, state, Interaction{Kind: EventMap, Selection: []int{1}, Map: pan})
	if state.MapCenter != *pan.Center || state.MapZoom != 14 {
		t.Fatalf("pan not persisted: %v zoom %d", state.MapCenter, state.MapZoom)
	}
	if frame.Map.Version != version || frame.Map.Center != selected {
		t.Fatalf("pan must not force a re-render, got %+v", frame.Map)
	}
}

func TestClearingSelectionKeepsMap(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)
	ctx := context.Background()

	state, _ := r.Run(ctx, models.NewViewState(), Interaction{Kind: EventSelect, Selection: []int{3}})
	center, zoom := state.MapCenter, state.MapZoom

	state, _ = r.Run(ctx, state, Interaction{Kind: EventSelect, Selection: []int{}})
	if state.LastSelection != nil {
		t.Fatalf("last selection not cleared: %v", state.LastSelection)
	}
	if state.MapCenter != center || state.MapZoom != zoom {
		t.Fatal("clearing selection moved the map")
	}

	// selecting the same row again recenters again
	state.MapCenter = models.LatLng{}
	state, _ = r.Run(ctx, state, Interaction{Kind: EventSelect, Selection: []int{3}})
	if state.MapCenter != center {
		t.Fatalf("reselect did not recenter: %v", state.MapCenter)
	}
}

func TestOutOfRangeSelectionIsIgnored(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)

	state, frame := r.Run(context.Background(), models.NewViewState(), Interaction{Kind: EventSelect, Selection: []int{7}})
	if state.MapCenter != models.NewViewState().MapCenter {
		t.Fatalf("map moved for invalid row: %v", state.MapCenter)
	}
	if state.LastSelection != nil {
		t.Fatalf("invalid selection recorded: %v", state.LastSelection)
	}
	if frame.Passes > 2 {
		t.Fatalf("invalid selection kept rerunning: %d passes", frame.Passes)
	}
}

func TestSubmitAddsItemAndReruns(t *testing.T) {
	r, store := newTestReconciler()
	ctx := context.Background()
	state := models.NewViewState()
	state.LastClick = &models.LatLng{Lat: 35, Lng: 139}

	// warm the cache so the rerun must see the invalidation
	state, _ = r.Run(ctx, state, Interaction{Kind: EventLoad})
	state, frame := r.Run(ctx, state, Interaction{
		Kind: EventSubmit,
		Form: &models.NewItem{Title: "Wallet", Description: "black leather", Latitude: ptr(35.0), Longitude: ptr(139.0)},
	})

	if store.inserts != 1 {
		t.Fatalf("expected one insert, got %d", store.inserts)
	}
	if len(frame.Rows) != 1 || frame.Rows[0].Title != "Wallet" {
		t.Fatalf("new item missing from rerun: %+v", frame.Rows)
	}
	if len(frame.Map.Markers.Features) != 1 {
		t.Fatalf("expected one marker, got %d", len(frame.Map.Markers.Features))
	}
	if state.LastClick != nil {
		t.Fatal("last click not cleared after submit")
	}
	if frame.Passes != 2 {
		t.Fatalf("expected forced rerun, got %d passes", frame.Passes)
	}
	if frame.Form.Title != "" || frame.Form.Description != "" {
		t.Fatalf("form not cleared after success: %+v", frame.Form)
	}
	if !hasNotice(frame, LevelSuccess) {
		t.Fatalf("missing success notice: %v", frame.Notices)
	}

	rows, _ := r.items.Search(ctx, "wallet")
	if len(rows) != 1 {
		t.Fatalf("search wallet = %d rows", len(rows))
	}
}

func TestSubmitWithoutTitleIsRejected(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)
	ctx := context.Background()

	state, frame := r.Run(ctx, models.NewViewState(), Interaction{
		Kind: EventSubmit,
		Form: &models.NewItem{Description: "no title", Latitude: ptr(40.0), Longitude: ptr(-73.9)},
	})
	if store.inserts != 0 {
		t.Fatal("empty title reached storage")
	}
	if !hasNotice(frame, LevelWarning) {
		t.Fatalf("missing warning: %v", frame.Notices)
	}
	if frame.Passes != 1 {
		t.Fatalf("validation failure must not rerun, got %d passes", frame.Passes)
	}
	if frame.Form.Description != "no title" || frame.Form.Latitude != 40.0 {
		t.Fatalf("inputs cleared on validation failure: %+v", frame.Form)
	}
	if len(frame.Rows) != 5 {
		t.Fatalf("search affected by rejected submit: %d rows", len(frame.Rows))
	}
	if state.FormLat != 40.0 || state.FormLon != -73.9 {
		t.Fatalf("typed coordinates not kept: (%v, %v)", state.FormLat, state.FormLon)
	}
}

func TestSubmitStorageFailureKeepsInputs(t *testing.T) {
	r, store := newTestReconciler()
	store.down = true

	_, frame := r.Run(context.Background(), models.NewViewState(), Interaction{
		Kind: EventSubmit,
		Form: &models.NewItem{Title: "Wallet", Latitude: ptr(1.0), Longitude: ptr(2.0)},
	})
	if !hasNotice(frame, LevelError) {
		t.Fatalf("missing error notice: %v", frame.Notices)
	}
	if frame.Form.Title != "Wallet" {
		t.Fatalf("title cleared after failure: %+v", frame.Form)
	}
	if len(frame.Rows) != 0 {
		t.Fatalf("expected empty rows while database is down, got %d", len(frame.Rows))
	}
}

func TestRepeatedPassIsIdempotent(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)
	ctx := context.Background()

	state, _ := r.Run(ctx, models.NewViewState(), Interaction{Kind: EventSelect, Selection: []int{0}})
	in := Interaction{Kind: EventMap, Selection: []int{0}, Map: reportFor(state)}
	in.Map.LastClicked = &models.LatLng{Lat: 40, Lng: -73.9}

	first, frame1 := r.Run(ctx, state, in)
	second, frame2 := r.Run(ctx, first, in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("state changed on repeat:\n%+v\n%+v", first, second)
	}
	if frame1.Passes != 1 || frame2.Passes != 1 {
		t.Fatalf("unexpected reruns: %d, %d", frame1.Passes, frame2.Passes)
	}
	if frame1.Map.Version != frame2.Map.Version {
		t.Fatal("map version changed without a server-side move")
	}
}

func TestSearchFiltersRowsAndMarkers(t *testing.T) {
	r, store := newTestReconciler()
	store.seed(fiveItems()...)
	store.seed(models.FoundItem{Title: "<script>", Description: "a & b", Latitude: 1, Longitude: 2})

	_, frame := r.Run(context.Background(), models.NewViewState(), Interaction{Kind: EventSearch, Search: "WALLET"})
	if len(frame.Rows) != 1 || frame.Rows[0].Title != "Wallet" {
		t.Fatalf("rows = %+v", frame.Rows)
	}
	if frame.Search != "WALLET" {
		t.Fatalf("search text not echoed: %q", frame.Search)
	}

	_, frame = r.Run(context.Background(), models.NewViewState(), Interaction{Kind: EventSearch, Search: "script"})
	label := frame.Map.Markers.Features[0].Properties["label"]
	if label != "<b>&lt;script&gt;</b><br>a &amp; b" {
		t.Fatalf("label = %v", label)
	}
	point := frame.Map.Markers.Features[0].Geometry.Bound().Center()
	if point[0] != 2 || point[1] != 1 {
		t.Fatalf("marker must be [lon, lat], got %v", point)
	}
}

func hasNotice(frame Frame, level NoticeLevel) bool {
	for _, n := range frame.Notices {
		if n.Level == level {
			return true
		}
	}
	return false
}
