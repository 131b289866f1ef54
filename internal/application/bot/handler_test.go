package bot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/domain/channel"
	"github.com/bryanwahyu/docbridge/internal/mocks"
)

type sent struct {
	texts []string
}

func (s *sent) capture(sender *mocks.MockSender) {
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, out channel.Activity) error {
		s.texts = append(s.texts, out.Text)
		return nil
	}).AnyTimes()
}

func inbound(typ string) channel.Activity {
	return channel.Activity{
		Type:         typ,
		ID:           "a1",
		ServiceURL:   "https://smba.example/",
		ChannelID:    "msteams",
		From:         channel.Account{ID: "user"},
		Recipient:    channel.Account{ID: "bot"},
		Conversation: channel.Conversation{ID: "conv"},
	}
}

func uploadEvent(t *testing.T, value any) channel.Activity {
	t.Helper()
	a := inbound(channel.TypeEvent)
	a.Name = channel.EventFilesUploaded
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	a.Value = raw
	return a
}

type fixture struct {
	relay    *mocks.MockRelayer
	analyzer *mocks.MockAnalyzer
	sender   *mocks.MockSender
	out      *sent
	h        *Handler
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		relay:    mocks.NewMockRelayer(ctrl),
		analyzer: mocks.NewMockAnalyzer(ctrl),
		sender:   mocks.NewMockSender(ctrl),
		out:      &sent{},
	}
	f.out.capture(f.sender)
	f.h = &Handler{Relay: f.relay, Analyzer: f.analyzer, Sender: f.sender}
	return f
}

func TestOnTurn_Message(t *testing.T) {
	tests := []struct {
		description string
		reply       string
		err         error
		want        string
	}{
		{"Should relay the model reply", "Bonjour !", nil, "Bonjour !"},
		{"Should fall back when the model is silent", "  ", nil, "Aucune réponse du modèle."},
		{"Should surface backend errors", "", errors.New("boom"), "Erreur backend : boom"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			f := newFixture(t)
			a := inbound(channel.TypeMessage)
			a.Text = "Salut"
			f.relay.EXPECT().Relay(gomock.Any(), "Salut").Return(tt.reply, tt.err)

			require.NoError(t, f.h.OnTurn(context.Background(), a))
			require.Equal(t, []string{tt.want}, f.out.texts)
		})
	}
}

func TestOnTurn_FilesUploaded(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	a := uploadEvent(t, map[string]any{
		"blobs": []map[string]string{
			{"blobUrl": "https://sa/uploads/a.pdf", "contentType": "application/pdf"},
			{"blobUrl": "https://sa/uploads/b.png", "contentType": "image/png"},
		},
		"message": "  Résume  ",
	})
	f.analyzer.EXPECT().Analyze(gomock.Any(), domain.Request{
		Files: []domain.UploadedFile{
			{SourceURL: "https://sa/uploads/a.pdf", ContentType: "application/pdf"},
			{SourceURL: "https://sa/uploads/b.png", ContentType: "image/png"},
		},
		Instruction: "Résume",
	}).Return([]domain.Result{
		{Kind: domain.KindPDF, Summary: "Un contrat."},
		{Kind: domain.KindImage, Summary: strings.Repeat("é", 2500)},
	}, nil)

	req.NoError(f.h.OnTurn(context.Background(), a))
	req.Len(f.out.texts, 3)
	req.Equal("🔎 Analyse de 2 fichier(s) en cours…", f.out.texts[0])
	req.Equal("— Document 1 (pdf):\nUn contrat.", f.out.texts[1])
	req.Equal("— Document 2 (image):\n"+strings.Repeat("é", 2000), f.out.texts[2])
}

func TestOnTurn_FilesUploadedSingleURL(t *testing.T) {
	tests := []struct {
		description string
		value       map[string]string
		want        domain.UploadedFile
	}{
		{
			"Should keep a PDF url",
			map[string]string{"url": "https://sa/uploads/c.pdf", "name": "c.pdf"},
			domain.UploadedFile{SourceURL: "https://sa/uploads/c.pdf", ContentType: "application/pdf"},
		},
		{
			"Should derive the image type from the name",
			map[string]string{"url": "https://sa/uploads/web/20261014T083005-ab12cd34.png", "name": "photo.PNG"},
			domain.UploadedFile{SourceURL: "https://sa/uploads/web/20261014T083005-ab12cd34.png", ContentType: "image/png"},
		},
		{
			"Should fall back to the url extension",
			map[string]string{"url": "https://sa/uploads/web/scan.jpg?sig=abc", "name": "scan"},
			domain.UploadedFile{SourceURL: "https://sa/uploads/web/scan.jpg?sig=abc", ContentType: "image/jpeg"},
		},
		{
			"Should leave an unknown type empty",
			map[string]string{"url": "https://sa/uploads/web/blob"},
			domain.UploadedFile{SourceURL: "https://sa/uploads/web/blob"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			f := newFixture(t)
			f.analyzer.EXPECT().Analyze(gomock.Any(), domain.Request{
				Files: []domain.UploadedFile{tt.want},
			}).Return([]domain.Result{}, nil)

			require.NoError(t, f.h.OnTurn(context.Background(), uploadEvent(t, tt.value)))
			require.Equal(t, []string{"🔎 Analyse de 1 fichier(s) en cours…", "Aucun résultat."}, f.out.texts)
		})
	}
	require.Equal(t, domain.KindImage, domain.Classify(domain.UploadedFile{ContentType: contentTypeOf("photo.png", "")}))
}

func TestOnTurn_MessageWithoutText(t *testing.T) {
	f := newFixture(t)
	a := inbound(channel.TypeMessage)
	a.Text = "  "

	require.NoError(t, f.h.OnTurn(context.Background(), a))
	require.Equal(t, []string{"Merci d'écrire votre question sous forme de texte."}, f.out.texts)
}

func TestOnTurn_FilesUploadedEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.h.OnTurn(context.Background(), uploadEvent(t, map[string]any{"blobs": []any{}})))
	require.Equal(t, []string{"Aucun fichier reçu."}, f.out.texts)
}

func TestOnTurn_AnalysisError(t *testing.T) {
	f := newFixture(t)
	a := uploadEvent(t, map[string]any{"blobs": []map[string]string{{"blobUrl": "https://sa/uploads/a.pdf"}}})
	f.analyzer.EXPECT().Analyze(gomock.Any(), gomock.Any()).Return(nil, errors.New("file 1: not found"))

	require.NoError(t, f.h.OnTurn(context.Background(), a))
	require.Equal(t, "❌ Exception analyse : file 1: not found", f.out.texts[1])
}

func TestOnTurn_PanicSendsApology(t *testing.T) {
	f := newFixture(t)
	a := inbound(channel.TypeMessage)
	a.Text = "x"
	f.relay.EXPECT().Relay(gomock.Any(), "x").DoAndReturn(func(context.Context, string) (string, error) {
		panic("nil map")
	})

	err := f.h.OnTurn(context.Background(), a)
	require.ErrorContains(t, err, "nil map")
	require.Equal(t, []string{"Erreur interne du bot."}, f.out.texts)
}

func TestOnTurn_IgnoresOtherActivities(t *testing.T) {
	f := newFixture(t)
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockRecorder(ctrl)
	metrics.EXPECT().TurnHandled(channel.TypeInvoke, false)
	f.h.Metrics = metrics

	require.NoError(t, f.h.OnTurn(context.Background(), inbound(channel.TypeInvoke)))
	require.Empty(t, f.out.texts)
}

func TestRunner_WaitsForTurns(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockTurnHandler(ctrl)
	done := make(chan struct{})
	handler.EXPECT().OnTurn(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ channel.Activity) error {
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		close(done)
		return nil
	})

	r := &Runner{Handler: handler, Timeout: time.Minute}
	reqCtx, cancel := context.WithCancel(context.Background())
	r.Go(reqCtx, inbound(channel.TypeMessage))
	cancel()

	ctx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, r.Wait(ctx))
	<-done
}
