// Package content holds the static marketing content for the landing page.
// Immutable for the process lifetime.
package content

// SiteContent is the media configuration used by the landing page.
type SiteContent struct {
	HeroImage            string
	HeroVideo            string
	TransformationBefore string
	TransformationAfter  string
}

// MethodologyStep is one card in the three-step process section.
type MethodologyStep struct {
	Icon      string
	Title     string
	Desc      string
	Highlight bool
}

// ServiceBullet is one entry in the services section.
type ServiceBullet struct {
	Icon  string
	Title string
	Desc  string
}

// Testimonial is a marketing testimonial card.
type Testimonial struct {
	Name     string
	Quote    string
	ImageURL string
}

// Default returns the site content used in production.
func Default() SiteContent {
	return SiteContent{
		HeroImage:            "https://images.unsplash.com/photo-1534438327276-14e5300c3a48?q=80&w=1200&auto=format&fit=crop",
		TransformationBefore: "https://images.unsplash.com/photo-1583454110551-21f2fa2afe61?q=80&w=800&auto=format&fit=crop",
		TransformationAfter:  "https://images.unsplash.com/photo-1534438327276-14e5300c3a48?q=80&w=800&auto=format&fit=crop",
	}
}

// Methodology returns the three-step process cards.
func Methodology() []MethodologyStep {
	return []MethodologyStep{
		{Icon: "fa-clipboard-list", Title: "1. Analyze", Desc: "We start with a deep dive. Intake forms, bloodwork analysis, and lifestyle assessment to understand your starting point and metabolic health."},
		{Icon: "fa-dna", Title: "2. Blueprint", Desc: "You get a custom roadmap. Precision meal plans, progressive training blocks, and supplement protocols tailored to your specific biology.", Highlight: true},
		{Icon: "fa-trophy", Title: "3. Evolve", Desc: "We execute and adjust. Bi-weekly check-ins, data-driven adjustments, and constant communication ensure you never plateau."},
	}
}

// Services returns the services section bullets.
func Services() []ServiceBullet {
	return []ServiceBullet{
		{Icon: "fa-utensils", Title: "Precision Nutrition", Desc: "Macros calculated to the gram. Meal plans that fit your schedule, not generic templates."},
		{Icon: "fa-microscope", Title: "Bloodwork Analysis", Desc: "We look under the hood. Optimize hormones, digestion, and longevity markers."},
		{Icon: "fa-dumbbell", Title: "Periodized Training", Desc: "Phased training blocks (Hypertrophy, Strength, Peaking) to ensure continuous progression."},
		{Icon: "fa-comments", Title: "24/7 Access", Desc: "Direct line to your coach. Questions answered, form checks reviewed, adjustments made."},
	}
}

// Story is the coach's story, rendered as markdown on the landing page.
const Story = `When you look at me today, owner of Ripped City Inc and aspiring professional
bodybuilder, you might assume I've always been fit.

My journey began at 338 pounds. I was exhausted, emotionally drained, and medically
at risk. Over the next year, I lost 97 pounds and gained mental clarity and purpose.

**"It's better to suffer in the gym than to suffer in the hospital."**

My promise to you is simple: if you bring the determination, I will provide the roadmap.`

// Testimonials returns the marketing testimonial cards.
func Testimonials() []Testimonial {
	return []Testimonial{
		{Name: "Marcus R.", Quote: "Dropped 18kg in six months and kept my strength. The check-ins kept me honest.", ImageURL: "https://images.unsplash.com/photo-1567013127542-490d757e51fc?q=80&w=200&auto=format&fit=crop"},
		{Name: "Dana K.", Quote: "First coach who actually looked at my bloodwork before writing a plan.", ImageURL: "https://images.unsplash.com/photo-1548690312-e3b507d8c110?q=80&w=200&auto=format&fit=crop"},
		{Name: "Leo T.", Quote: "Placed top three in my first classic physique show. The posing feedback alone was worth it.", ImageURL: "https://images.unsplash.com/photo-1583500178450-e59e4309b57a?q=80&w=200&auto=format&fit=crop"},
	}
}

// LeadMagnetTitle is the free guide offered by the lead-capture form.
const LeadMagnetTitle = "The Gut Health Blueprint"
