package usecase

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	config "github.com/Plaidmustache/evo-api-ghl-sub000/configs"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/dto"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/protocols"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/application/repositories"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/jid"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/domain/models"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/metrics"
	"github.com/Plaidmustache/evo-api-ghl-sub000/internal/services"
)

// instanceTagPrefix marks the contact tag that pins a contact to the
// gateway instance its messages arrived through.
const instanceTagPrefix = "wa-instance:"

// InstanceTag builds the contact tag for an instance name.
func InstanceTag(name string) string {
	return instanceTagPrefix + name
}

// instanceFromTags returns the first instance name tagged on a contact.
func instanceFromTags(tags []string) string {
	for _, tag := range tags {
		if strings.HasPrefix(tag, instanceTagPrefix) {
			return strings.TrimPrefix(tag, instanceTagPrefix)
		}
	}
	return ""
}

var mediaExtensions = map[string]string{
	".jpg": "image", ".jpeg": "image", ".png": "image", ".gif": "image", ".webp": "image",
	".mp4": "video", ".mov": "video", ".3gp": "video",
	".mp3": "audio", ".ogg": "audio", ".wav": "audio", ".m4a": "audio", ".aac": "audio",
}

// mediaTypeFor classifies an attachment URL by extension; anything
// unrecognized ships as a document.
func mediaTypeFor(attachmentURL string) string {
	name := attachmentURL
	if u, err := url.Parse(attachmentURL); err == nil && u.Path != "" {
		name = u.Path
	}
	if mediaType, ok := mediaExtensions[strings.ToLower(path.Ext(name))]; ok {
		return mediaType
	}
	return "document"
}

func fileNameFor(attachmentURL string) string {
	if u, err := url.Parse(attachmentURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(attachmentURL)
}

// OutboundMessageUseCase dispatches one CRM-originated message through the
// gateway: resolve the responsible instance, send, acknowledge submission as
// "sent" and record the correlation entry that later status webhooks join
// against.
type OutboundMessageUseCase struct {
	Configs      *config.Config
	Tenants      repositories.TenantRepositoryInterface
	Instances    repositories.GatewayInstanceRepositoryInterface
	Correlations repositories.MessageCorrelationRepositoryInterface
	Evolution    EvolutionAPI
	CRM          CRMAPI
	Queue        protocols.Publisher
	Metrics      *metrics.Metrics
}

func NewOutboundMessageUseCase(
	configs *config.Config,
	tenants repositories.TenantRepositoryInterface,
	instances repositories.GatewayInstanceRepositoryInterface,
	correlations repositories.MessageCorrelationRepositoryInterface,
	evolution EvolutionAPI,
	crm CRMAPI,
	queue protocols.Publisher,
	m *metrics.Metrics,
) *OutboundMessageUseCase {
	return &OutboundMessageUseCase{
		Configs:      configs,
		Tenants:      tenants,
		Instances:    instances,
		Correlations: correlations,
		Evolution:    evolution,
		CRM:          crm,
		Queue:        queue,
		Metrics:      m,
	}
}

func (om *OutboundMessageUseCase) Execute(ctx context.Context, msg *dto.CRMOutboundMessage) error {
	// Another conversation provider's traffic is not ours to deliver.
	if om.Configs.CRMConversationProviderID != "" && msg.ConversationProviderID != "" &&
		msg.ConversationProviderID != om.Configs.CRMConversationProviderID {
		log.Printf("[DISPATCH] - Ignoring message %s for provider %s", msg.MessageID, msg.ConversationProviderID)
		return nil
	}

	phone := jid.DigitsOnly(msg.Phone)
	if phone == "" {
		// The CRM retries failed webhooks, which would duplicate sends, so
		// unresolvable targets are a warning rather than an error.
		log.Printf("[DISPATCH] - Message %s has no dialable phone (%q); nothing sent", msg.MessageID, msg.Phone)
		return nil
	}

	tenant, err := om.Tenants.FindById(ctx, msg.LocationID)
	if err != nil {
		log.Printf("[DISPATCH] - No tenant for location %s; nothing sent", msg.LocationID)
		return nil
	}

	instance, err := om.resolveInstance(ctx, tenant, phone)
	if err != nil {
		return err
	}
	if instance == nil {
		log.Printf("[DISPATCH] - No gateway instance for location %s; nothing sent", tenant.ID)
		return nil
	}

	if !instance.IsOpen() {
		// Delivery is impossible until the instance reconnects; failing
		// terminally keeps the CRM from retrying into a dead connection.
		om.markFailed(ctx, tenant, msg.MessageID)
		om.Metrics.RecordOutboundDispatched(instance.Name, "rejected")
		return fmt.Errorf("instance %s is %s: %w", instance.Name, instance.ConnectionState, services.ErrInstanceNotReady)
	}

	gatewayMessageID, err := om.dispatch(ctx, instance, phone, msg)
	if err != nil {
		om.markFailed(ctx, tenant, msg.MessageID)
		om.Metrics.RecordOutboundDispatched(instance.Name, "failed")
		return fmt.Errorf("failed to dispatch message %s via instance %s: %w", msg.MessageID, instance.Name, err)
	}

	// Submission acknowledgment, not delivery; delivery and read flow in
	// later through status webhooks.
	if err := om.CRM.UpdateMessageStatus(ctx, tenant, msg.MessageID, services.CRMStatusSent); err != nil {
		log.Printf("[DISPATCH] - Failed to mark message %s sent: %v", msg.MessageID, err)
	}

	if gatewayMessageID == "" {
		log.Printf("[DISPATCH] - Gateway returned no message id for %s; statuses will not correlate", msg.MessageID)
	} else {
		correlation := &models.MessageCorrelation{
			GatewayMessageID: gatewayMessageID,
			CRMMessageID:     msg.MessageID,
			InstanceName:     instance.Name,
			ContactPhone:     phone,
		}
		if err := om.Correlations.Record(ctx, correlation); err != nil {
			log.Printf("[DISPATCH] - Failed to record correlation %s -> %s: %v", gatewayMessageID, msg.MessageID, err)
		}
	}

	om.Metrics.RecordOutboundDispatched(instance.Name, "sent")
	publishUsage(ctx, om.Queue, dto.UsageEvent{
		Event:     dto.UsageMessageDispatched,
		TenantID:  tenant.ID,
		Instance:  instance.Name,
		Phone:     phone,
		MessageID: msg.MessageID,
	})

	log.Printf("[DISPATCH] - Message %s sent to %s via instance %s (gateway id %s)", msg.MessageID, phone, instance.Name, gatewayMessageID)
	return nil
}

// resolveInstance picks the instance responsible for a contact: the one
// tagged on the CRM contact, else the tenant's only instance, else the
// oldest-provisioned one as a deterministic tie-break.
func (om *OutboundMessageUseCase) resolveInstance(ctx context.Context, tenant *models.Tenant, phone string) (*models.GatewayInstance, error) {
	contact, err := om.CRM.UpsertContact(ctx, tenant, "+"+phone, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contact %s: %w", phone, err)
	}

	if tagged := instanceFromTags(contact.Tags); tagged != "" {
		instance, err := om.Instances.FindByName(ctx, tagged)
		if err == nil && instance.TenantID == tenant.ID {
			return instance, nil
		}
		log.Printf("[DISPATCH] - Contact tag points at unknown instance %s; falling back to tenant instances", tagged)
	}

	instances, err := om.Instances.FindByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances of tenant %s: %w", tenant.ID, err)
	}
	if len(instances) == 0 {
		return nil, nil
	}
	return &instances[0], nil
}

// dispatch sends the message content and returns the first durable gateway
// message id, the one status webhooks will reference.
func (om *OutboundMessageUseCase) dispatch(ctx context.Context, instance *models.GatewayInstance, phone string, msg *dto.CRMOutboundMessage) (string, error) {
	if len(msg.Attachments) == 0 {
		if msg.Message == "" {
			return "", nil
		}
		resp, err := om.Evolution.SendText(ctx, instance, phone, msg.Message)
		if err != nil {
			return "", err
		}
		return resp.Key.ID, nil
	}

	var gatewayMessageID string
	for i, attachment := range msg.Attachments {
		caption := ""
		if i == 0 {
			caption = msg.Message
		}
		resp, err := om.Evolution.SendMedia(ctx, instance, phone, mediaTypeFor(attachment), attachment, caption, fileNameFor(attachment))
		if err != nil {
			return gatewayMessageID, err
		}
		if gatewayMessageID == "" {
			gatewayMessageID = resp.Key.ID
		}
	}
	return gatewayMessageID, nil
}

// markFailed reflects a failed or impossible dispatch on the CRM message so
// the agent sees it; a failure here is logged and absorbed.
func (om *OutboundMessageUseCase) markFailed(ctx context.Context, tenant *models.Tenant, messageID string) {
	if messageID == "" {
		return
	}
	if err := om.CRM.UpdateMessageStatus(ctx, tenant, messageID, services.CRMStatusFailed); err != nil {
		log.Printf("[DISPATCH] - Failed to mark message %s failed: %v", messageID, err)
	}
}
