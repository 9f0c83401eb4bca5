package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"wedding-site/internal/handler"
	"wedding-site/internal/itinerary"
	"wedding-site/internal/models"
	"wedding-site/internal/spreadsheet"
)

type operatorConsole struct {
	admin     *handler.AdminHandler
	itinerary *handler.ItineraryHandler
	// messages is nil when WhatsApp is disabled
	messages *handler.MessageHandler
	in       io.Reader
	out      io.Writer
}

func (c *operatorConsole) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.writer(), format, args...)
}

func (c *operatorConsole) println(args ...interface{}) {
	fmt.Fprintln(c.writer(), args...)
}

func (c *operatorConsole) writer() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

// run reads commands until exit or end of input
func (c *operatorConsole) run(ctx context.Context) {
	scanner := bufio.NewScanner(c.in)

	for ctx.Err() == nil {
		c.println("\nCommands:")
		c.println("  1. Add guest")
		c.println("  2. Import guests from file")
		c.println("  3. View all guests")
		c.println("  4. View guests by RSVP status")
		c.println("  5. Grant admin")
		c.println("  6. Send WhatsApp invitation")
		c.println("  7. Preview guest itinerary")
		c.println("  8. Exit")
		c.printf("\nEnter command (1-8): ")

		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			c.addGuest(ctx, scanner)
		case "2":
			c.importFile(ctx, scanner)
		case "3":
			c.viewAllGuests(ctx)
		case "4":
			c.viewGuestsByState(ctx, scanner)
		case "5":
			c.grantAdmin(ctx, scanner)
		case "6":
			c.sendInvitation(ctx, scanner)
		case "7":
			c.previewItinerary(ctx, scanner)
		case "8":
			c.println("Exiting...")
			return
		default:
			c.println("Invalid command. Please try again.")
		}
	}
}

func (c *operatorConsole) prompt(scanner *bufio.Scanner, label string) (string, bool) {
	c.printf("%s: ", label)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func (c *operatorConsole) addGuest(ctx context.Context, scanner *bufio.Scanner) {
	name, ok := c.prompt(scanner, "Enter guest name")
	if !ok {
		return
	}
	phoneNumber, ok := c.prompt(scanner, "Enter phone number")
	if !ok {
		return
	}
	events, ok := c.prompt(scanner, "Invited events, comma separated (empty for all)")
	if !ok {
		return
	}

	in := handler.GuestInput{Name: name, Phone: phoneNumber}
	if events != "" {
		for _, e := range strings.Split(events, ",") {
			in.Events = append(in.Events, strings.TrimSpace(e))
		}
	}
	guest, err := c.admin.CreateGuest(ctx, in)
	if err != nil {
		c.printf("❌ Error adding guest: %v\n", err)
		return
	}
	c.printf("✅ %s added (%s)\n", guest.Name, guest.Phone)
}

func (c *operatorConsole) importFile(ctx context.Context, scanner *bufio.Scanner) {
	path, ok := c.prompt(scanner, "Path to .csv or .xlsx file")
	if !ok {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		c.printf("❌ Error opening file: %v\n", err)
		return
	}
	defer f.Close()

	rows, err := spreadsheet.ReadRows(filepath.Base(path), f)
	if err != nil {
		c.printf("❌ Error reading file: %v\n", err)
		return
	}
	res, err := c.admin.ImportGuests(ctx, rows)
	if err != nil {
		c.printf("❌ Import stopped: %v\n", err)
	}
	if res == nil {
		return
	}
	c.printf("✅ Imported %d guests, %d errors\n", res.Success, res.Errors)
	for _, fl := range res.Failures {
		c.printf("   line %d (%s): %s\n", fl.Line, fl.Name, fl.Reason)
	}
}

func (c *operatorConsole) viewAllGuests(ctx context.Context) {
	guests, err := c.admin.ListGuests(ctx)
	if err != nil {
		c.printf("❌ Error loading guests: %v\n", err)
		return
	}
	if len(guests) == 0 {
		c.println("\nNo guests found.")
		return
	}

	c.printf("\n📋 All Guests (%d total):\n", len(guests))
	c.printGuests(guests, true)
}

func (c *operatorConsole) viewGuestsByState(ctx context.Context, scanner *bufio.Scanner) {
	c.println("\nSelect status:")
	c.println("  1. Pending")
	c.println("  2. Attending")
	c.println("  3. Declined")
	choice, ok := c.prompt(scanner, "Enter choice (1-3)")
	if !ok {
		return
	}

	var state models.RSVPState
	switch choice {
	case "1":
		state = models.RSVPPending
	case "2":
		state = models.RSVPAttending
	case "3":
		state = models.RSVPDeclined
	default:
		c.println("Invalid choice.")
		return
	}

	guests, err := c.admin.GuestsByState(ctx, state)
	if err != nil {
		c.printf("❌ Error loading guests: %v\n", err)
		return
	}
	if len(guests) == 0 {
		c.printf("\nNo guests with status '%s'.\n", state)
		return
	}
	c.printf("\n📋 Guests with status '%s' (%d total):\n", state, len(guests))
	c.printGuests(guests, false)
}

func (c *operatorConsole) printGuests(guests []models.GuestDetail, withState bool) {
	c.println(strings.Repeat("-", 60))
	for _, d := range guests {
		c.printf("Name: %s\n", d.Guest.Name)
		c.printf("Phone: %s\n", d.Guest.Phone)
		if withState {
			c.printf("Status: %s\n", d.State())
		}
		if d.RSVP != nil {
			c.printf("RSVP Date: %s\n", d.RSVP.UpdatedAt.Format("2006-01-02 15:04:05"))
			if len(d.FamilyMembers) > 0 {
				names := make([]string, len(d.FamilyMembers))
				for i, m := range d.FamilyMembers {
					names[i] = m.Name
				}
				c.printf("Family: %s\n", strings.Join(names, ", "))
			}
		}
		c.println(strings.Repeat("-", 60))
	}
}

func (c *operatorConsole) grantAdmin(ctx context.Context, scanner *bufio.Scanner) {
	phoneNumber, ok := c.prompt(scanner, "Phone number of the guest")
	if !ok {
		return
	}
	guest, err := c.admin.FindGuest(ctx, phoneNumber)
	if err != nil {
		c.printf("❌ Error finding guest: %v\n", err)
		return
	}
	if err := c.admin.GrantAdmin(ctx, guest.ID); err != nil {
		c.printf("❌ Error granting admin: %v\n", err)
		return
	}
	c.printf("✅ %s is now an admin\n", guest.Name)
}

func (c *operatorConsole) sendInvitation(ctx context.Context, scanner *bufio.Scanner) {
	if c.messages == nil {
		c.println("WhatsApp is disabled. Set WHATSAPP_ENABLED=true to send invitations.")
		return
	}
	phoneNumber, ok := c.prompt(scanner, "Phone number of the guest")
	if !ok {
		return
	}
	guest, err := c.admin.FindGuest(ctx, phoneNumber)
	if err != nil {
		c.printf("❌ Error finding guest: %v\n", err)
		return
	}

	c.printf("\nSending invitation to %s (%s)...\n", guest.Name, guest.Phone)
	if err := c.messages.SendInvitation(ctx, guest.ID); err != nil {
		c.printf("❌ Error sending invitation: %v\n", err)
		return
	}
	c.println("✅ Invitation sent successfully!")
}

// previewItinerary pages through the slides a guest would see
func (c *operatorConsole) previewItinerary(ctx context.Context, scanner *bufio.Scanner) {
	phoneNumber, ok := c.prompt(scanner, "Phone number of the guest")
	if !ok {
		return
	}
	guest, err := c.admin.FindGuest(ctx, phoneNumber)
	if err != nil {
		c.printf("❌ Error finding guest: %v\n", err)
		return
	}
	view, err := c.itinerary.ForGuest(ctx, guest.ID)
	if err != nil {
		c.printf("❌ Error loading itinerary: %v\n", err)
		return
	}
	if len(view.Slides) == 0 {
		c.println("No slides.")
		return
	}

	pager := itinerary.NewPager(len(view.Slides))
	for {
		slide := view.Slides[pager.Current()]
		c.printf("\n[%d/%d] %s %s\n", pager.Current()+1, pager.Total(), slide.IconEmoji, slide.Title)
		if slide.Venue != "" {
			c.printf("📍 %s\n", slide.Venue)
		}
		if slide.EventDate != "" || slide.EventTime != "" {
			c.printf("📅 %s %s\n", slide.EventDate, slide.EventTime)
		}

		var nav []string
		if !pager.AtStart() {
			nav = append(nav, "p = previous")
		}
		if !pager.AtEnd() {
			nav = append(nav, "n = next")
		}
		nav = append(nav, "q = quit")
		cmd, ok := c.prompt(scanner, strings.Join(nav, ", "))
		if !ok {
			return
		}
		switch strings.ToLower(cmd) {
		case "n":
			pager.Next()
		case "p":
			pager.Prev()
		case "q":
			return
		}
	}
}
