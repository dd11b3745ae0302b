// Package azblob archives uploaded documents in an Azure Blob Storage container.
package azblob

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"

	"docintake/internal/config"
	"docintake/internal/port"
)

const sha256MetadataKey = "sha256"

// clockSkew backdates SAS start times so freshly issued links validate.
const clockSkew = 5 * time.Minute

// Archive implements port.DocumentArchive on one blob container.
type Archive struct {
	client    *azblob.Client
	container string
	// sharedKey is set when the client was built from a connection string
	// and can sign SAS tokens locally.
	sharedKey bool
}

// NewArchive builds a blob archive from cfg. A connection string is preferred;
// otherwise AccountURL is used with the default Azure credential chain and
// download links are signed with a user delegation key.
func NewArchive(cfg *config.BlobConfig) (*Archive, error) {
	if cfg.Container == "" {
		return nil, fmt.Errorf("blob archive: container is required")
	}

	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return &Archive{client: client, container: cfg.Container, sharedKey: true}, nil
	}

	if cfg.AccountURL == "" {
		return nil, fmt.Errorf("blob archive: connection string or account url is required")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}
	client, err := azblob.NewClient(cfg.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Archive{client: client, container: cfg.Container}, nil
}

// EnsureContainer creates the container if it does not already exist.
func (a *Archive) EnsureContainer(ctx context.Context) error {
	_, err := a.client.CreateContainer(ctx, a.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("create container %s: %w", a.container, err)
	}
	log.Printf("azblob.Archive.EnsureContainer: container %s ready", a.container)
	return nil
}

// PingContext verifies the container is reachable.
func (a *Archive) PingContext(ctx context.Context) error {
	_, err := a.client.ServiceClient().NewContainerClient(a.container).GetProperties(ctx, nil)
	if err != nil {
		return fmt.Errorf("blob container %s: %w", a.container, err)
	}
	return nil
}

// Put stores a document with its digest as blob metadata.
func (a *Archive) Put(ctx context.Context, doc port.ArchivedDocument) error {
	contentType := doc.ContentType
	opts := &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if doc.SHA256 != "" {
		opts.Metadata = map[string]*string{sha256MetadataKey: to.Ptr(doc.SHA256)}
	}

	if _, err := a.client.UploadStream(ctx, a.container, doc.Key, doc.Body, opts); err != nil {
		return fmt.Errorf("blob put %s: %w", doc.Key, err)
	}

	log.Printf("azblob.Archive.Put: stored %s/%s (%d bytes)", a.container, doc.Key, doc.Size)
	return nil
}

// Remove deletes the blob at key. A missing blob is not an error.
func (a *Archive) Remove(ctx context.Context, key string) error {
	_, err := a.client.DeleteBlob(ctx, a.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("blob remove %s: %w", key, err)
	}
	return nil
}

// PresignGet returns a read-only SAS URL for key valid for ttl.
func (a *Archive) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	expiry := time.Now().UTC().Add(ttl)

	if a.sharedKey {
		url, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, expiry, nil)
		if err != nil {
			return "", fmt.Errorf("blob presign %s: %w", key, err)
		}
		return url, nil
	}

	start := time.Now().UTC().Add(-clockSkew)
	udc, err := a.client.ServiceClient().GetUserDelegationCredential(ctx, service.KeyInfo{
		Start:  to.Ptr(start.Format(sas.TimeFormat)),
		Expiry: to.Ptr(expiry.Format(sas.TimeFormat)),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("blob delegation key: %w", err)
	}

	params, err := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		StartTime:     start,
		ExpiryTime:    expiry,
		Permissions:   to.Ptr(sas.BlobPermissions{Read: true}).String(),
		ContainerName: a.container,
		BlobName:      key,
	}.SignWithUserDelegation(udc)
	if err != nil {
		return "", fmt.Errorf("blob presign %s: %w", key, err)
	}
	return blobClient.URL() + "?" + params.Encode(), nil
}
