// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package resource

import (
	"log/slog"

	"github.com/olegiv/trust-admin/internal/model"
)

// Domain definitions. Paths are relative to the backend base URL.
var (
	AboutDef = Definition{
		Name: "about", Title: "Biography", Path: "/biography",
		Kind: KindSingleton, Ops: OpsSingleton,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "content", Label: "Biography", Type: FieldRichText, Required: true},
		},
		ImageField: "images", Multipart: true,
	}

	BooksDef = Definition{
		Name: "books", Title: "Books", Path: "/books",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "author", Label: "Author", Type: FieldText, Required: true},
			{Name: "publisher", Label: "Publisher", Type: FieldText},
			{Name: "year", Label: "Year", Type: FieldNumber},
			{Name: "price", Label: "Price", Type: FieldText},
			{Name: "purchaseLink", Label: "Purchase link", Type: FieldURL},
			{Name: "description", Label: "Description", Type: FieldRichText},
		},
		Columns:    []string{"title", "author", "year"},
		ImageField: "images", Multipart: true,
	}

	EventsDef = Definition{
		Name: "events", Title: "Events", Path: "/events",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "date", Label: "Date", Type: FieldDate, Required: true},
			{Name: "location", Label: "Location", Type: FieldText},
			{Name: "description", Label: "Description", Type: FieldRichText},
		},
		Columns:    []string{"title", "date", "location"},
		ImageField: "images", Multipart: true,
	}

	DonationDef = Definition{
		Name: "donation", Title: "Donation", Path: "/donation",
		Kind: KindSingleton, Ops: OpsSingleton,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "description", Label: "Description", Type: FieldRichText},
			{Name: "accountName", Label: "Account name", Type: FieldText},
			{Name: "accountNumber", Label: "Account number", Type: FieldText},
			{Name: "bankName", Label: "Bank", Type: FieldText},
			{Name: "branchCode", Label: "Branch code", Type: FieldText},
			{Name: "upiId", Label: "UPI ID", Type: FieldText},
		},
		ImageField: "qrCode", Multipart: true,
	}

	CollectionsDef = Definition{
		Name: "collections", Title: "Donations received", Path: "/collection",
		Kind: KindList, Ops: OpsReadDelete,
		Fields: []Field{
			{Name: "name", Label: "Name"},
			{Name: "email", Label: "Email"},
			{Name: "phone", Label: "Phone"},
			{Name: "amount", Label: "Amount"},
			{Name: "paymentId", Label: "Payment ID"},
			{Name: "message", Label: "Message"},
			{Name: "createdAt", Label: "Received"},
		},
		Columns: []string{"name", "email", "amount", "createdAt"},
	}

	NewsDef = Definition{
		Name: "news", Title: "News", Path: "/news",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "title", Label: "Headline", Type: FieldText, Required: true},
			{Name: "date", Label: "Date", Type: FieldDate},
			{Name: "source", Label: "Source", Type: FieldText},
			{Name: "link", Label: "Link", Type: FieldURL},
			{Name: "content", Label: "Content", Type: FieldRichText},
		},
		Columns:    []string{"title", "date", "source"},
		ImageField: "images", Multipart: true,
	}

	GalleryDef = Definition{
		Name: "gallery", Title: "Gallery", Path: "/gallery",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "title", Label: "Title", Type: FieldText, Required: true},
			{Name: "category", Label: "Category", Type: FieldSelect, Options: []string{"photos", "events", "archive"}},
			{Name: "caption", Label: "Caption", Type: FieldTextarea},
		},
		Columns:    []string{"title", "category"},
		ImageField: "images", Multipart: true,
	}

	ContactDef = Definition{
		Name: "contact", Title: "Contact inquiries", Path: "/contact",
		Kind: KindList, Ops: OpsReadDelete,
		Fields: []Field{
			{Name: "name", Label: "Name"},
			{Name: "email", Label: "Email"},
			{Name: "phone", Label: "Phone"},
			{Name: "subject", Label: "Subject"},
			{Name: "message", Label: "Message"},
			{Name: "createdAt", Label: "Received"},
		},
		Columns: []string{"name", "email", "subject", "createdAt"},
	}

	SubscribersDef = Definition{
		Name: "subscribers", Title: "Subscribers", Path: "/newsletter-subscribers",
		Kind: KindList, Ops: OpsReadDelete,
		Fields: []Field{
			{Name: "email", Label: "Email"},
			{Name: "name", Label: "Name"},
			{Name: "createdAt", Label: "Subscribed"},
		},
		Columns: []string{"email", "name", "createdAt"},
	}

	TrusteesDef = Definition{
		Name: "trustees", Title: "Trustees", Path: "/trustee-user-records",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: FieldText, Required: true},
			{Name: "designation", Label: "Designation", Type: FieldText},
			{Name: "email", Label: "Email", Type: FieldEmail},
			{Name: "phone", Label: "Phone", Type: FieldText},
			{Name: "order", Label: "Display order", Type: FieldNumber},
			{Name: "bio", Label: "Biography", Type: FieldRichText},
		},
		Columns:    []string{"name", "designation", "order"},
		ImageField: "images", Multipart: true,
	}

	TestimonialsDef = Definition{
		Name: "testimonials", Title: "Testimonials", Path: "/testimonials",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "name", Label: "Name", Type: FieldText, Required: true},
			{Name: "designation", Label: "Designation", Type: FieldText},
			{Name: "message", Label: "Testimonial", Type: FieldTextarea, Required: true},
			{Name: "rating", Label: "Rating", Type: FieldSelect, Options: []string{"1", "2", "3", "4", "5"}},
		},
		Columns:    []string{"name", "designation", "rating"},
		ImageField: "images", Multipart: true,
	}

	SocialMediaDef = Definition{
		Name: "socialmedia", Title: "Social media", Path: "/socialmedia",
		Kind: KindList, Ops: OpsCRUD,
		Fields: []Field{
			{Name: "platform", Label: "Platform", Type: FieldSelect, Required: true,
				Options: []string{"facebook", "instagram", "twitter", "youtube", "linkedin", "whatsapp"}},
			{Name: "url", Label: "URL", Type: FieldURL, Required: true},
			{Name: "icon", Label: "Icon", Type: FieldText},
		},
		Columns: []string{"platform", "url"},
	}

	DashboardDef = Definition{
		Name: "dashboard", Title: "Dashboard", Path: "/dashboard/counts",
		Kind: KindSingleton, Ops: OpFetch,
	}
)

// Registry holds one slice per domain for the lifetime of the process.
type Registry struct {
	Dashboard *Slice[model.DashboardCounts]

	order   []string
	domains map[string]Domain
}

// NewRegistry creates every domain slice over sender.
func NewRegistry(sender Sender, logger *slog.Logger) *Registry {
	r := &Registry{
		Dashboard: NewSlice[model.DashboardCounts](DashboardDef, sender, logger),
		domains:   make(map[string]Domain),
	}

	r.add(AsDomain(NewSlice[model.About](AboutDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Book](BooksDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Event](EventsDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Donation](DonationDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.DonationRecord](CollectionsDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.News](NewsDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.GalleryItem](GalleryDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Contact](ContactDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Subscriber](SubscribersDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Trustee](TrusteesDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.Testimonial](TestimonialsDef, sender, logger)))
	r.add(AsDomain(NewSlice[model.SocialLink](SocialMediaDef, sender, logger)))
	return r
}

func (r *Registry) add(d Domain) {
	name := d.Definition().Name
	r.order = append(r.order, name)
	r.domains[name] = d
}

// Get returns the domain registered as name.
func (r *Registry) Get(name string) (Domain, bool) {
	d, ok := r.domains[name]
	return d, ok
}

// All returns the domains in navigation order.
func (r *Registry) All() []Domain {
	out := make([]Domain, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.domains[name])
	}
	return out
}
