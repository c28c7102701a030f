// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// About is the biography page (singleton).
type About struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Images  URLs   `json:"images"`
}

func (r About) RecordID() ID { return r.ID }

func (r About) Normalized() About {
	r.Images = orEmpty(r.Images)
	return r
}

// Book is a publication by or about the person the trust remembers.
type Book struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Publisher    string `json:"publisher"`
	Year         Text   `json:"year"`
	Price        Text   `json:"price"`
	PurchaseLink string `json:"purchaseLink"`
	Description  string `json:"description"`
	Images       URLs   `json:"images"`
}

func (r Book) RecordID() ID { return r.ID }

func (r Book) Normalized() Book {
	r.Images = orEmpty(r.Images)
	return r
}

// Event is a commemorative event.
type Event struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Images      URLs   `json:"images"`
}

func (r Event) RecordID() ID { return r.ID }

func (r Event) Normalized() Event {
	r.Images = orEmpty(r.Images)
	return r
}

// Donation is the donation page (singleton): bank details and a QR code.
type Donation struct {
	ID            ID     `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	AccountName   string `json:"accountName"`
	AccountNumber Text   `json:"accountNumber"`
	BankName      string `json:"bankName"`
	BranchCode    string `json:"branchCode"`
	UPIID         string `json:"upiId"`
	QRCode        URLs   `json:"qrCode"`
}

func (r Donation) RecordID() ID { return r.ID }

func (r Donation) Normalized() Donation {
	r.QRCode = orEmpty(r.QRCode)
	return r
}

// DonationRecord is one entry of the donation ledger.
type DonationRecord struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     Text   `json:"phone"`
	Amount    Text   `json:"amount"`
	Message   string `json:"message"`
	PaymentID string `json:"paymentId"`
	CreatedAt string `json:"createdAt"`
}

func (r DonationRecord) RecordID() ID { return r.ID }

func (r DonationRecord) Normalized() DonationRecord { return r }

// News is a news item.
type News struct {
	ID      ID     `json:"id"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Source  string `json:"source"`
	Link    string `json:"link"`
	Content string `json:"content"`
	Images  URLs   `json:"images"`
}

func (r News) RecordID() ID { return r.ID }

func (r News) Normalized() News {
	r.Images = orEmpty(r.Images)
	return r
}

// GalleryItem is a photo gallery entry.
type GalleryItem struct {
	ID       ID     `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Caption  string `json:"caption"`
	Images   URLs   `json:"images"`
}

func (r GalleryItem) RecordID() ID { return r.ID }

func (r GalleryItem) Normalized() GalleryItem {
	r.Images = orEmpty(r.Images)
	return r
}

// Contact is an inquiry submitted through the public site.
type Contact struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     Text   `json:"phone"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

func (r Contact) RecordID() ID { return r.ID }

func (r Contact) Normalized() Contact { return r }

// Subscriber is a newsletter subscriber.
type Subscriber struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func (r Subscriber) RecordID() ID { return r.ID }

func (r Subscriber) Normalized() Subscriber { return r }

// Trustee is a member of the trust's board.
type Trustee struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	Phone       Text   `json:"phone"`
	Order       Text   `json:"order"`
	Bio         string `json:"bio"`
	Images      URLs   `json:"images"`
}

func (r Trustee) RecordID() ID { return r.ID }

func (r Trustee) Normalized() Trustee {
	r.Images = orEmpty(r.Images)
	return r
}

// Testimonial is a quote shown on the public site.
type Testimonial struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Message     string `json:"message"`
	Rating      Text   `json:"rating"`
	Images      URLs   `json:"images"`
}

func (r Testimonial) RecordID() ID { return r.ID }

func (r Testimonial) Normalized() Testimonial {
	r.Images = orEmpty(r.Images)
	return r
}

// SocialLink is a social-media profile link.
type SocialLink struct {
	ID       ID     `json:"id"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
}

func (r SocialLink) RecordID() ID { return r.ID }

func (r SocialLink) Normalized() SocialLink { return r }
