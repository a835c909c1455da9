package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/nodeset-import/internal/config"
	"github.com/rcliao/nodeset-import/internal/conflict"
	"github.com/rcliao/nodeset-import/internal/ctxlog"
	"github.com/rcliao/nodeset-import/internal/model"
	"github.com/rcliao/nodeset-import/internal/nodeset"
)

// memKV is an in-memory store.KV with switchable failures.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	putErr  error
	putKeys []string
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putKeys = append(m.putKeys, key)
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func newTestOrchestrator(t *testing.T, strategy conflict.Strategy, kv *memKV, opts ...Option) *Orchestrator {
	t.Helper()
	cfg := config.Defaults()
	cfg.Strategy = strategy
	if kv == nil {
		kv = newMemKV()
	}
	o := New(testContext(), cfg, kv, opts...)
	t.Cleanup(o.Close)
	return o
}

// nodesetXML builds a small valid nodeset. tag makes the content unique.
func nodesetXML(tag string, uris ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	b.WriteString(`<UANodeSet xmlns="http://opcfoundation.org/UA/2011/03/UANodeSet.xsd">` + "\n")
	nodeID := "i=5001"
	if len(uris) > 0 {
		b.WriteString("  <NamespaceUris>\n")
		for _, u := range uris {
			b.WriteString("    <Uri>" + u + "</Uri>\n")
		}
		b.WriteString("  </NamespaceUris>\n")
		nodeID = "ns=1;i=1"
	}
	fmt.Fprintf(&b, "  <UAObject NodeId=%q BrowseName=\"1:%s\"><DisplayName>%s</DisplayName></UAObject>\n", nodeID, tag, tag)
	b.WriteString("</UANodeSet>\n")
	return b.String()
}

const withRequiredModel = `<UANodeSet>
  <NamespaceUris><Uri>urn:acme:pumps</Uri><Uri>http://opcfoundation.org/UA/DI/</Uri></NamespaceUris>
  <Models>
    <Model ModelUri="urn:acme:pumps">
      <RequiredModel ModelUri="http://opcfoundation.org/UA/" />
      <RequiredModel ModelUri="http://opcfoundation.org/UA/DI/" />
    </Model>
  </Models>
  <UAObjectType NodeId="ns=1;i=1" BrowseName="1:PumpType">
    <References><Reference ReferenceType="HasSubtype" IsForward="false">ns=2;i=1002</Reference></References>
  </UAObjectType>
</UANodeSet>`

const diNodeset = `<UANodeSet>
  <NamespaceUris><Uri>http://opcfoundation.org/UA/DI/</Uri></NamespaceUris>
  <UAObjectType NodeId="ns=1;i=1002" BrowseName="1:DeviceType" />
</UANodeSet>`

func src(name, text string) Source { return FromBytes(name, []byte(text)) }

func TestImport_AcceptsFile(t *testing.T) {
	kv := newMemKV()
	o := newTestOrchestrator(t, conflict.WarnAndContinue, kv)

	res := o.Import(testContext(), []Source{src("a.xml", nodesetXML("A", "urn:a"))})

	require.Nil(t, res.Aborted)
	require.Len(t, res.Files, 1)
	f := res.Files[0]
	assert.Equal(t, Accepted, f.Outcome)
	require.NotNil(t, f.Metadata)
	require.NotNil(t, f.Model)
	assert.Equal(t, 1, f.Metadata.NodeCount)
	assert.Equal(t, "urn:a", f.Metadata.Namespaces[0].URI)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, StateSucceeded, o.State())

	notes := o.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, model.SeveritySuccess, notes[0].Severity)
	assert.Equal(t, "Loaded 'a.xml' with 1 nodes", notes[0].Message)

	recent := o.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, f.Metadata.ID, recent[0].ID)
	assert.Contains(t, string(kv.data[RecentFilesKey]), `"name":"a.xml"`)
	assert.Empty(t, res.Errors())
}

func TestImport_DedupSkipsIdenticalContent(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	text := nodesetXML("Same", "urn:same")

	res := o.Import(testContext(), []Source{src("first.xml", text), src("second.xml", text)})

	require.Nil(t, res.Aborted, "duplicates must not abort the batch")
	require.Len(t, res.Files, 2)
	assert.Equal(t, Accepted, res.Files[0].Outcome)
	assert.Equal(t, Skipped, res.Files[1].Outcome)
	assert.Equal(t, model.ErrDuplicate, res.Files[1].Err.Code)
	assert.Len(t, o.Loaded(), 1)

	again := o.Import(testContext(), []Source{src("third.xml", text)})
	require.Len(t, again.Files, 1)
	assert.Equal(t, Skipped, again.Files[0].Outcome)
	assert.Equal(t, StateFailed, again.State)
}

func TestImport_RenameStrategy(t *testing.T) {
	o := newTestOrchestrator(t, conflict.Rename, nil)
	ctx := testContext()

	o.Import(ctx, []Source{src("a.xml", nodesetXML("A", "urn:shared"))})
	res := o.Import(ctx, []Source{src("b.xml", nodesetXML("B", "urn:shared", "urn:own"))})

	require.Len(t, res.Files, 1)
	f := res.Files[0]
	require.Equal(t, Accepted, f.Outcome)
	require.NotNil(t, f.Warning)
	assert.Equal(t, model.ErrNamespaceConflict, f.Warning.Code)
	assert.Equal(t, "urn:shared#"+f.Metadata.ID, f.Metadata.Namespaces[0].URI)
	assert.Equal(t, "urn:own", f.Metadata.Namespaces[1].URI)

	seen := make(map[string]bool)
	for _, l := range o.Loaded() {
		for _, ns := range l.Metadata.Namespaces {
			assert.False(t, seen[ns.URI], "duplicate accepted uri %s", ns.URI)
			seen[ns.URI] = true
		}
	}

	notes := o.Notifications()
	assert.Equal(t, model.SeveritySuccess, notes[0].Severity)
	assert.Equal(t, model.SeverityWarning, notes[1].Severity)
	assert.True(t, strings.HasSuffix(notes[1].Message, "(renamed)"))
}

func TestImport_RejectStrategy(t *testing.T) {
	o := newTestOrchestrator(t, conflict.Reject, nil)
	ctx := testContext()

	var loaded []string
	onLoaded := func(_ *nodeset.Model, meta model.NodesetMetadata) { loaded = append(loaded, meta.FileName) }
	var codes []model.ErrorCode
	onError := func(e model.ImportError) { codes = append(codes, e.Code) }

	o.Import(ctx, []Source{src("a.xml", nodesetXML("A", "urn:shared"))}).Dispatch(onLoaded, onError)
	res := o.Import(ctx, []Source{
		src("b.xml", nodesetXML("B", "urn:shared")),
		src("c.xml", nodesetXML("C", "urn:other")),
	})
	res.Dispatch(onLoaded, onError)

	require.Nil(t, res.Aborted)
	assert.Equal(t, Skipped, res.Files[0].Outcome)
	assert.Equal(t, model.ErrNamespaceConflict, res.Files[0].Err.Code)
	assert.Equal(t, Accepted, res.Files[1].Outcome)
	assert.Equal(t, []string{"a.xml", "c.xml"}, loaded)
	assert.Equal(t, []model.ErrorCode{model.ErrNamespaceConflict}, codes)
	assert.Len(t, o.Loaded(), 2)
	assert.Equal(t, model.SeverityError, o.Notifications()[1].Severity)
}

func TestImport_ConflictWithinSameBatch(t *testing.T) {
	o := newTestOrchestrator(t, conflict.Reject, nil)

	res := o.Import(testContext(), []Source{
		src("a.xml", nodesetXML("A", "urn:x")),
		src("b.xml", nodesetXML("B", "urn:x")),
	})

	assert.Equal(t, Accepted, res.Files[0].Outcome)
	assert.Equal(t, Skipped, res.Files[1].Outcome)
}

func TestImport_WarnAndContinueKeepsURIs(t *testing.T) {
	for _, st := range []conflict.Strategy{conflict.WarnAndContinue, conflict.Merge} {
		t.Run(string(st), func(t *testing.T) {
			o := newTestOrchestrator(t, st, nil)
			ctx := testContext()

			o.Import(ctx, []Source{src("a.xml", nodesetXML("A", "urn:x"))})
			res := o.Import(ctx, []Source{src("b.xml", nodesetXML("B", "urn:x"))})

			f := res.Files[0]
			require.Equal(t, Accepted, f.Outcome)
			assert.Equal(t, "urn:x", f.Metadata.Namespaces[0].URI)
			require.Len(t, res.Errors(), 1)
			assert.Equal(t, model.ErrNamespaceConflict, res.Errors()[0].Code)
			assert.Equal(t, model.SeverityWarning, o.Notifications()[1].Severity)
		})
	}
}

func TestImport_SingleFileDependencyGate(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	// The node lacks a BrowseName, so parsing would fail if it were attempted.
	text := strings.Replace(withRequiredModel, ` BrowseName="1:PumpType"`, "", 1)

	res := o.Import(testContext(), []Source{src("pumps.xml", text)})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, model.ErrMissingElements, res.Aborted.Code)
	assert.Equal(t, "Missing required models: http://opcfoundation.org/UA/DI/. Select all required model files together", res.Aborted.Message)
	assert.Equal(t, []string{"http://opcfoundation.org/UA/DI/"}, o.RequiredModels())
	assert.Empty(t, o.Loaded())
	assert.Equal(t, model.SeverityWarning, o.Notifications()[0].Severity)
	assert.Equal(t, StateFailed, res.State)
}

func TestImport_DependencyGateListsEveryModel(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	text := `<UANodeSet>
  <Models>
    <Model ModelUri="urn:acme:line">
      <RequiredModel ModelUri="urn:a" />
      <RequiredModel ModelUri="http://opcfoundation.org/UA/" />
      <RequiredModel ModelUri="urn:b" />
    </Model>
  </Models>
</UANodeSet>`

	res := o.Import(testContext(), []Source{src("line.xml", text)})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, "Missing required models: urn:a, urn:b. Select all required model files together", res.Aborted.Message)
	assert.Equal(t, []string{"urn:a", "urn:b"}, o.RequiredModels())
}

func TestImport_ByteOrderMarkAndDeclaredEncoding(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	plain := nodesetXML("A", "urn:a")
	latin1 := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<UANodeSet><NamespaceUris><Uri>urn:caf\xe9</Uri></NamespaceUris>" +
		"<UAObject NodeId=\"ns=1;i=1\" BrowseName=\"1:Cafe\"/></UANodeSet>"

	res := o.Import(testContext(), []Source{
		src("bom.xml", "\uFEFF"+plain),
		src("latin1.xml", latin1),
		src("plain.xml", plain),
	})

	require.Nil(t, res.Aborted)
	require.Len(t, res.Files, 3)
	assert.Equal(t, Accepted, res.Files[0].Outcome)
	assert.Equal(t, Accepted, res.Files[1].Outcome)
	assert.Equal(t, "urn:café", res.Files[1].Metadata.Namespaces[0].URI)
	assert.Equal(t, nodeset.Checksum(plain), res.Files[0].Metadata.Checksum, "the byte order mark is not part of the content")
	assert.Equal(t, model.ErrDuplicate, res.Files[2].Err.Code)
}

func TestImport_MultiFileBypassesDependencyGate(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)

	res := o.Import(testContext(), []Source{
		src("pumps.xml", withRequiredModel),
		src("di.xml", diNodeset),
	})

	require.Nil(t, res.Aborted)
	require.Len(t, res.Accepted(), 2)
	pumps := res.Files[0].Model
	assert.Empty(t, pumps.UnresolvedReferences)
	assert.Equal(t, 1, pumps.ExternalReferences)
	assert.Empty(t, o.RequiredModels())
}

func TestImport_SizeGatePrecedence(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)

	var opened []string
	open := func(name string) func() (io.ReadCloser, error) {
		return func() (io.ReadCloser, error) {
			opened = append(opened, name)
			return io.NopCloser(strings.NewReader(nodesetXML(name))), nil
		}
	}
	res := o.Import(testContext(), []Source{
		{Name: "a.xml", Size: 15 * config.MiB, Open: open("a.xml")},
		{Name: "b.xml", Size: 1024, Open: open("b.xml")},
	})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, model.ErrFileTooLarge, res.Aborted.Code)
	assert.Equal(t, "File exceeds the maximum size of 10.0 MB", res.Aborted.Message)
	assert.Equal(t, "a.xml", res.Aborted.FileName)
	assert.Empty(t, opened, "no file may be read after a size violation")
	require.Len(t, res.Files, 1)
	assert.Equal(t, BatchAborted, res.Files[0].Outcome)
	assert.Len(t, o.Notifications(), 1)
}

func TestImport_FormatGate(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)

	res := o.Import(testContext(), []Source{
		src("a.xml", nodesetXML("A")),
		src("b.json", "{}"),
	})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, model.ErrInvalidFormat, res.Aborted.Code)
	assert.Equal(t, "b.json", res.Aborted.FileName)
	assert.Empty(t, o.Loaded())
}

func TestImport_UserSizeOverride(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	assert.Equal(t, 0.2, o.SetMaxFileSizeMB(0.05))

	res := o.Import(testContext(), []Source{{Name: "a.xml", Size: 300 * 1024}})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, "File exceeds the maximum size of 0.2 MB", res.Aborted.Message)
}

func TestImport_InvalidXMLSkipsFile(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)

	res := o.Import(testContext(), []Source{
		src("bad.xml", "<UANodeSet><UAObject>"),
		src("good.xml", nodesetXML("Good", "urn:good")),
	})

	require.Nil(t, res.Aborted)
	assert.Equal(t, Skipped, res.Files[0].Outcome)
	assert.Equal(t, model.ErrInvalidFormat, res.Files[0].Err.Code)
	assert.Contains(t, res.Files[0].Err.Details, "unexpected EOF")
	assert.Equal(t, Accepted, res.Files[1].Outcome)
	assert.Equal(t, StateSucceeded, res.State)
}

func TestImport_ParseErrorAbortsBatch(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	broken := `<UANodeSet><UAObject BrowseName="x"/></UANodeSet>`

	res := o.Import(testContext(), []Source{
		src("first.xml", nodesetXML("First", "urn:first")),
		src("broken.xml", broken),
		src("last.xml", nodesetXML("Last", "urn:last")),
	})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, model.ErrParse, res.Aborted.Code)
	assert.Equal(t, "broken.xml", res.Aborted.FileName)
	require.Len(t, res.Files, 2, "files after the parse failure are never attempted")
	assert.Equal(t, Accepted, res.Files[0].Outcome)
	assert.Equal(t, BatchAborted, res.Files[1].Outcome)
	assert.Len(t, o.Loaded(), 1)
	assert.Equal(t, StateFailed, res.State)
	assert.Nil(t, o.Progress())
}

func TestImport_ReadFailureIsParseError(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)

	res := o.Import(testContext(), []Source{{
		Name: "a.xml",
		Size: 10,
		Open: func() (io.ReadCloser, error) { return nil, errors.New("disk gone") },
	}})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, model.ErrParse, res.Aborted.Code)
	assert.Contains(t, res.Aborted.Message, "disk gone")
}

func TestImport_RecoversFromPanic(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)

	res := o.Import(testContext(), []Source{{
		Name: "a.xml",
		Size: 10,
		Open: func() (io.ReadCloser, error) { panic("boom") },
	}})

	require.NotNil(t, res.Aborted)
	assert.Equal(t, model.ErrParse, res.Aborted.Code)
	assert.Contains(t, res.Aborted.Message, "boom")
	assert.Equal(t, StateFailed, o.State())
	require.Len(t, res.Errors(), 1)
}

func TestImport_RecentHistoryCapAndOrder(t *testing.T) {
	kv := newMemKV()
	o := newTestOrchestrator(t, conflict.WarnAndContinue, kv)
	ctx := testContext()

	for i := 1; i <= 6; i++ {
		name := fmt.Sprintf("f%d.xml", i)
		res := o.Import(ctx, []Source{src(name, nodesetXML(name, "urn:"+name))})
		require.Nil(t, res.Aborted)
	}

	recent := o.Recent()
	require.Len(t, recent, MaxRecentFiles)
	names := make([]string, len(recent))
	for i, e := range recent {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"f6.xml", "f5.xml", "f4.xml", "f3.xml", "f2.xml"}, names)

	reloaded := New(ctx, config.Defaults(), kv)
	defer reloaded.Close()
	var ids []string
	for _, e := range reloaded.Recent() {
		ids = append(ids, e.ID)
	}
	require.Len(t, ids, MaxRecentFiles)
	assert.Equal(t, recent[0].ID, ids[0])
	assert.Equal(t, recent[4].ID, ids[4])
}

func TestImport_RecentHistoryDedupByName(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	ctx := testContext()

	o.Import(ctx, []Source{src("a.xml", nodesetXML("v1", "urn:a1"))})
	o.Import(ctx, []Source{src("b.xml", nodesetXML("b", "urn:b"))})
	res := o.Import(ctx, []Source{src("a.xml", nodesetXML("v2", "urn:a2"))})

	recent := o.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "a.xml", recent[0].Name)
	assert.Equal(t, res.Files[0].Metadata.ID, recent[0].ID)
	assert.Equal(t, "b.xml", recent[1].Name)
}

func TestImport_NotificationCap(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	ctx := testContext()

	for i := 1; i <= 6; i++ {
		o.Import(ctx, []Source{{Name: "big.xml", Size: 11*config.MiB + int64(i)}})
	}

	notes := o.Notifications()
	require.Len(t, notes, MaxNotifications)
	assert.Equal(t, fmt.Sprintf("Size: %d bytes", 11*config.MiB+6), notes[0].Details)
	assert.Equal(t, fmt.Sprintf("Size: %d bytes", 11*config.MiB+2), notes[4].Details)

	assert.True(t, o.DismissNotification(notes[0].ID))
	assert.Len(t, o.Notifications(), MaxNotifications-1)
	assert.False(t, o.DismissNotification("missing"))
}

func TestNew_DegradesOnBadRecentHistory(t *testing.T) {
	ctx := testContext()

	corrupt := newMemKV()
	corrupt.data[RecentFilesKey] = []byte("{not json")
	o := New(ctx, config.Defaults(), corrupt)
	defer o.Close()
	assert.Empty(t, o.Recent())

	failing := newMemKV()
	failing.getErr = errors.New("store unavailable")
	failing.putErr = errors.New("store unavailable")
	o2 := New(ctx, config.Defaults(), failing)
	defer o2.Close()
	assert.Empty(t, o2.Recent())

	res := o2.Import(ctx, []Source{src("a.xml", nodesetXML("A"))})
	require.Len(t, res.Accepted(), 1)
	assert.Len(t, o2.Recent(), 1, "history is kept in memory when saving fails")
	assert.Equal(t, []string{RecentFilesKey}, failing.putKeys)
}

func TestClearRecent(t *testing.T) {
	kv := newMemKV()
	o := newTestOrchestrator(t, conflict.WarnAndContinue, kv)
	ctx := testContext()

	o.Import(ctx, []Source{src("a.xml", nodesetXML("A"))})
	o.ClearRecent(ctx)

	assert.Empty(t, o.Recent())
	assert.Equal(t, "[]", string(kv.data[RecentFilesKey]))
}

func TestImport_StateResetsAfterDelay(t *testing.T) {
	cfg := config.Defaults()
	cfg.ResetDelay = 20 * time.Millisecond
	o := New(testContext(), cfg, nil)
	defer o.Close()

	res := o.Import(testContext(), []Source{src("a.xml", nodesetXML("A"))})
	assert.Equal(t, StateSucceeded, res.State)

	assert.Eventually(t, func() bool { return o.State() == StateSelectFile },
		time.Second, 5*time.Millisecond)
}

func TestImport_ProgressReported(t *testing.T) {
	var mu sync.Mutex
	var updates []Progress
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil, WithProgress(func(p Progress) {
		mu.Lock()
		updates = append(updates, p)
		mu.Unlock()
	}))

	o.Import(testContext(), []Source{src("a.xml", nodesetXML("A"))})

	require.NotEmpty(t, updates)
	assert.Equal(t, Progress{FileName: "a.xml", Stage: StageReading, Value: 0}, updates[0])
	assert.Contains(t, updates, Progress{FileName: "a.xml", Stage: StageReading, Value: 100})
	assert.Contains(t, updates, Progress{FileName: "a.xml", Stage: StageParsing, Value: 60})
	assert.Equal(t, Progress{FileName: "a.xml", Stage: StageCompleted, Value: 100}, updates[len(updates)-1])
	assert.Nil(t, o.Progress(), "progress is cleared after the batch")
}

func TestSeedAndRemove(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	ctx := testContext()
	text := nodesetXML("A", "urn:a")

	o.Seed([]model.NodesetMetadata{{ID: "OLD", Checksum: nodeset.Checksum(text)}})
	res := o.Import(ctx, []Source{src("a.xml", text)})
	assert.Equal(t, model.ErrDuplicate, res.Files[0].Err.Code)

	require.True(t, o.Remove("OLD"))
	assert.False(t, o.Remove("OLD"))

	res = o.Import(ctx, []Source{src("a.xml", text)})
	assert.Equal(t, Accepted, res.Files[0].Outcome)
}

func TestImport_EmptyBatch(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	res := o.Import(testContext(), nil)
	assert.Empty(t, res.Files)
	assert.Equal(t, StateSelectFile, res.State)
}

func TestDispatch_Order(t *testing.T) {
	o := newTestOrchestrator(t, conflict.WarnAndContinue, nil)
	text := nodesetXML("A", "urn:a")

	res := o.Import(testContext(), []Source{
		src("a.xml", text),
		src("dup.xml", text),
		src("b.xml", nodesetXML("B", "urn:a")),
	})

	var events []string
	res.Dispatch(
		func(_ *nodeset.Model, m model.NodesetMetadata) { events = append(events, "loaded:"+m.FileName) },
		func(e model.ImportError) { events = append(events, string(e.Code)+":"+e.FileName) },
	)
	assert.Equal(t, []string{
		"loaded:a.xml",
		"DUPLICATE:dup.xml",
		"NAMESPACE_CONFLICT:b.xml",
		"loaded:b.xml",
	}, events)
}
