package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	objects map[string][]byte
	types   map[string]string
	err     error
	signErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.objects[objectName] = data
	f.types[objectName] = contentType
	return nil
}

func (f *fakeStorage) DeleteFile(ctx context.Context, objectName string) error {
	delete(f.objects, objectName)
	return nil
}

func (f *fakeStorage) GetPresignedURL(ctx context.Context, objectName string) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return "https://files.example.com/" + objectName, nil
}

type fakeOCR struct {
	text      string
	mediaType string
}

func (f *fakeOCR) Transcribe(ctx context.Context, mediaType string, image []byte) (string, error) {
	f.mediaType = mediaType
	return f.text, nil
}

type fakeAnalyzer struct {
	text string
	err  error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	f.text = text
	return "Analysis of the document.", f.err
}

func TestDocumentServiceUpload(t *testing.T) {
	docs := newTestStore(100)
	storage := newFakeStorage()
	svc := NewDocumentService(docs, NewKeywordVerifier(), storage)

	result, err := svc.Upload(context.Background(), "alice", "invoice.txt", []byte(completeInvoice))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.DocID == "" || !result.Verified {
		t.Errorf("Expected verified result with id, got %+v", result)
	}
	if result.DocumentType != "Commercial Invoice" {
		t.Errorf("Expected Commercial Invoice, got %s", result.DocumentType)
	}

	stored := docs.Get("alice", result.DocID)
	if stored == nil {
		t.Fatal("Expected document to be registered")
	}
	want := "alice/" + result.DocID + "/invoice.txt"
	if stored.ObjectName != want {
		t.Errorf("Expected object %s, got %s", want, stored.ObjectName)
	}
	if string(storage.objects[want]) != completeInvoice {
		t.Error("Expected file content to be archived")
	}
	if stored.Text == "" {
		t.Error("Expected extracted text to be kept for chat")
	}
}

func TestDocumentServiceRejectsType(t *testing.T) {
	svc := NewDocumentService(newTestStore(100), NewKeywordVerifier(), nil)
	if _, err := svc.Upload(context.Background(), "alice", "photo.gif", []byte{1}); !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("Expected ErrUnsupportedFile, got %v", err)
	}
}

func TestDocumentServiceUnreadableFile(t *testing.T) {
	docs := newTestStore(100)
	svc := NewDocumentService(docs, NewKeywordVerifier(), nil)

	result, err := svc.Upload(context.Background(), "guest", "scan.pdf", []byte("not really a pdf"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.Verified {
		t.Error("Expected unreadable file to be unverified")
	}
	if result.Verification != noReadableText {
		t.Errorf("Expected %q, got %q", noReadableText, result.Verification)
	}
	if docs.Get("guest", result.DocID) == nil {
		t.Error("Expected document to still be registered")
	}
}

func TestDocumentServiceArchiveFailureIsNotFatal(t *testing.T) {
	docs := newTestStore(100)
	storage := newFakeStorage()
	storage.err = errors.New("minio down")
	svc := NewDocumentService(docs, NewKeywordVerifier(), storage)

	result, err := svc.Upload(context.Background(), "alice", "invoice.txt", []byte(completeInvoice))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if docs.Get("alice", result.DocID).ObjectName != "" {
		t.Error("Expected no object name when archiving failed")
	}
}

func TestDocumentServiceReadsImagesWithOCR(t *testing.T) {
	docs := newTestStore(100)
	ocr := &fakeOCR{text: completeInvoice}
	svc := NewDocumentService(docs, NewKeywordVerifier(), nil).WithOCR(ocr)

	result, err := svc.Upload(context.Background(), "alice", "scan.JPG", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if ocr.mediaType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %q", ocr.mediaType)
	}
	if !result.Verified {
		t.Errorf("Expected transcribed invoice to verify, got %+v", result)
	}
	if docs.Get("alice", result.DocID).Text != completeInvoice {
		t.Error("Expected transcribed text to be kept for chat")
	}
}

func TestDocumentServiceImageWithoutOCR(t *testing.T) {
	svc := NewDocumentService(newTestStore(100), NewKeywordVerifier(), nil)
	result, err := svc.Upload(context.Background(), "alice", "scan.png", []byte{1})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.Verified || result.Verification != noReadableText {
		t.Errorf("Expected unreadable image, got %+v", result)
	}
}

func TestDocumentServiceAnalysis(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	svc := NewDocumentService(newTestStore(100), NewKeywordVerifier(), nil).WithAnalysis(analyzer, nil)

	result, err := svc.Upload(context.Background(), "alice", "invoice.txt", []byte(completeInvoice))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if result.Analysis != "Analysis of the document." {
		t.Errorf("Expected analysis, got %q", result.Analysis)
	}
	if analyzer.text != completeInvoice {
		t.Error("Expected the extracted text to be analyzed")
	}

	analyzer.err = errors.New("model down")
	result, err = svc.Upload(context.Background(), "alice", "invoice.txt", []byte(completeInvoice))
	if err != nil {
		t.Fatalf("Expected analysis failure not to fail the upload, got %v", err)
	}
	if result.Analysis != "" {
		t.Errorf("Expected no analysis, got %q", result.Analysis)
	}
}

func TestDocumentServiceTranslatesForDevanagariDocuments(t *testing.T) {
	gen := &scriptedGenerator{respond: func(system string, turns []Turn) (string, error) {
		prompt := turns[len(turns)-1].Text
		switch {
		case strings.HasPrefix(prompt, "Identify the language"):
			return "ne", nil
		case strings.HasPrefix(prompt, "Translate the text below from English to Nepali"):
			return "NE: " + prompt[strings.LastIndex(prompt, "Text:\n")+6:], nil
		}
		return "", errors.New("unexpected prompt")
	}}
	svc := NewDocumentService(newTestStore(100), NewKeywordVerifier(), nil).
		WithAnalysis(&fakeAnalyzer{}, NewTranslator(gen))

	result, err := svc.Upload(context.Background(), "alice", "invoice.txt", []byte("बीजक "+completeInvoice))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(result.Verification, "NE: 📄 Document Type:") {
		t.Errorf("Expected translated report, got %q", result.Verification)
	}
	if result.Analysis != "NE: Analysis of the document." {
		t.Errorf("Expected translated analysis, got %q", result.Analysis)
	}
}

func TestDocumentServiceDeletesEvictedArchives(t *testing.T) {
	storage := newFakeStorage()
	svc := NewDocumentService(newTestStore(1), NewKeywordVerifier(), storage)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "alice", "first.txt", []byte("one"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	firstObject := ObjectName("alice", first.DocID, "first.txt")
	if _, ok := storage.objects[firstObject]; !ok {
		t.Fatal("Expected first upload to be archived")
	}

	// CreatedAt must differ for eviction order
	time.Sleep(time.Millisecond)
	if _, err := svc.Upload(ctx, "alice", "second.txt", []byte("two")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, ok := storage.objects[firstObject]; ok {
		t.Error("Expected evicted upload to be removed from storage")
	}
	if len(storage.objects) != 1 {
		t.Errorf("Expected 1 archived object, got %d", len(storage.objects))
	}
}

func TestDocumentServiceList(t *testing.T) {
	storage := newFakeStorage()
	svc := NewDocumentService(newTestStore(100), NewKeywordVerifier(), storage)
	ctx := context.Background()

	res, err := svc.Upload(ctx, "alice", "invoice.txt", []byte(completeInvoice))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := svc.Upload(ctx, "bob", "other.txt", []byte("x")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	list := svc.List(ctx, "alice")
	if len(list) != 1 {
		t.Fatalf("Expected 1 document for alice, got %d", len(list))
	}
	want := "https://files.example.com/" + ObjectName("alice", res.DocID, "invoice.txt")
	if list[0].ID != res.DocID || !list[0].Verified || list[0].DownloadURL != want {
		t.Errorf("Unexpected summary: %+v", list[0])
	}

	storage.signErr = errors.New("minio down")
	if got := svc.List(ctx, "alice"); len(got) != 1 || got[0].DownloadURL != "" {
		t.Errorf("Expected listing without link when signing fails, got %+v", got)
	}
}
