package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/protocols"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/jid"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/metrics"
)

// Fixed bodies forwarded when a media message carries no caption.
const (
	fallbackImage    = "Received an image"
	fallbackVideo    = "Received a video"
	fallbackAudio    = "Received an audio message"
	fallbackDocument = "Received a document"
	fallbackUnknown  = "Received a message"
)

// InboundMessageUseCase routes one gateway message into the CRM: dedupe and
// echo checks, identifier normalization, content extraction, contact and
// conversation resolution, then the inbound post.
type InboundMessageUseCase struct {
	Configs   *config.Config
	Instances repositories.GatewayInstanceRepositoryInterface
	Tenants   repositories.TenantRepositoryInterface
	CRM       CRMAPI
	Dedupe    protocols.DedupeStore
	Queue     protocols.Publisher
	Metrics   *metrics.Metrics
}

func NewInboundMessageUseCase(
	configs *config.Config,
	instances repositories.GatewayInstanceRepositoryInterface,
	tenants repositories.TenantRepositoryInterface,
	crm CRMAPI,
	dedupe protocols.DedupeStore,
	queue protocols.Publisher,
	m *metrics.Metrics,
) *InboundMessageUseCase {
	return &InboundMessageUseCase{
		Configs:   configs,
		Instances: instances,
		Tenants:   tenants,
		CRM:       crm,
		Dedupe:    dedupe,
		Queue:     queue,
		Metrics:   m,
	}
}

func (im *InboundMessageUseCase) Execute(ctx context.Context, event *dto.EvolutionEvent) error {
	data, err := event.MessageUpsert()
	if err != nil {
		return err
	}

	// Messages sent through this bridge come back as upserts with the
	// self-origin flag set; forwarding them would echo every agent message
	// into its own conversation.
	if data.Key.FromMe {
		return nil
	}

	seen, err := im.Dedupe.Seen(ctx, event.Instance, data.Key.ID)
	if err != nil {
		// A broken dedupe store must not drop messages; fall through and
		// let the echo check stand alone.
		log.Printf("[WEBHOOK] - Dedupe check failed for message %s on %s: %v", data.Key.ID, event.Instance, err)
	} else if seen {
		log.Printf("[WEBHOOK] - Dropped redelivered message %s on %s", data.Key.ID, event.Instance)
		im.Metrics.RecordDuplicateDrop(event.Instance)
		return nil
	}

	remoteJid := data.Key.RemoteJid
	if jid.IsGroup(remoteJid) {
		log.Printf("[WEBHOOK] - Skipping group message %s on %s (contacts are phone-keyed)", data.Key.ID, event.Instance)
		return nil
	}
	if jid.IsBroadcast(remoteJid) {
		log.Printf("[WEBHOOK] - Skipping broadcast message %s on %s", data.Key.ID, event.Instance)
		return nil
	}
	if jid.IsDeviceLinked(remoteJid) {
		// Not a dialable number, but the message is still forwarded under
		// the normalized id rather than dropped.
		log.Printf("[WEBHOOK] - Device-linked sender %s on %s; forwarding anyway", remoteJid, event.Instance)
		im.Metrics.RecordDeviceLinked(event.Instance)
	}

	phone := jid.Normalize(remoteJid)
	if phone == "" {
		log.Printf("[WEBHOOK] - Message %s on %s has no sender identifier", data.Key.ID, event.Instance)
		return nil
	}

	body, attachments := extractContent(data)

	instance, err := im.Instances.FindByName(ctx, event.Instance)
	if err != nil {
		return fmt.Errorf("failed to resolve instance %s: %w", event.Instance, err)
	}
	tenant, err := im.Tenants.FindById(ctx, instance.TenantID)
	if err != nil {
		return fmt.Errorf("failed to resolve tenant %s of instance %s: %w", instance.TenantID, instance.Name, err)
	}

	name := data.PushName
	if name == "" {
		name = phone
	}

	// The instance tag makes the contact routable for outbound replies.
	contact, err := im.CRM.UpsertContact(ctx, tenant, "+"+phone, name, []string{InstanceTag(instance.Name)})
	if err != nil {
		return err
	}

	conversationID, err := im.CRM.FindOrCreateConversation(ctx, tenant, contact.ID)
	if err != nil {
		return err
	}

	date := time.Unix(data.MessageTimestamp, 0)
	if data.MessageTimestamp <= 0 {
		date = time.Now()
	}

	crmMessageID, err := im.CRM.PostInboundMessage(ctx, tenant, conversationID, body, attachments, date)
	if err != nil {
		return err
	}

	im.Metrics.RecordInboundForwarded(instance.Name)
	publishUsage(ctx, im.Queue, dto.UsageEvent{
		Event:     dto.UsageMessageReceived,
		TenantID:  tenant.ID,
		Instance:  instance.Name,
		Phone:     phone,
		MessageID: crmMessageID,
	})

	log.Printf("[WEBHOOK] - Forwarded message %s from %s into conversation %s", data.Key.ID, phone, conversationID)
	return nil
}

// extractContent dispatches on the message content type and returns the CRM
// message body plus any attachment URLs. Media without a caption falls back
// to a fixed description so no message arrives empty.
func extractContent(data *dto.MessageUpsertData) (string, []string) {
	msg := data.Message

	switch data.MessageType {
	case "conversation":
		return msg.Conversation, nil
	case "extendedTextMessage":
		if msg.ExtendedTextMessage != nil {
			return msg.ExtendedTextMessage.Text, nil
		}
	case "imageMessage":
		return mediaContent(msg.ImageMessage, fallbackImage)
	case "videoMessage":
		return mediaContent(msg.VideoMessage, fallbackVideo)
	case "audioMessage":
		return mediaContent(msg.AudioMessage, fallbackAudio)
	case "documentMessage":
		return mediaContent(msg.DocumentMessage, fallbackDocument)
	}

	// Unknown content type; fall back to whatever text is present so the
	// agent still sees that something arrived.
	if msg.Conversation != "" {
		return msg.Conversation, nil
	}
	return fallbackUnknown, nil
}

func mediaContent(media *dto.MediaMessage, fallback string) (string, []string) {
	if media == nil {
		return fallback, nil
	}
	body := media.Caption
	if body == "" {
		body = fallback
	}
	if media.URL != "" {
		return body, []string{media.URL}
	}
	return body, nil
}
