package agent

import (
	"fmt"
	"strings"
)

var ruler = strings.Repeat("-", 80)

// testsPrompt asks for pytest functions derived from free-form requirements.
func testsPrompt(requirements string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a list of Python test functions (using pytest) for a static website based on the following requirements:\n%s\n\n", strings.TrimSpace(requirements))
	b.WriteString(`Each test function should:
- Be a valid Python function using pytest conventions (e.g., start with 'test_').
- Test a specific aspect of the website's functionality, appearance, or responsiveness.
- Use libraries like selenium or playwright for browser-based testing where appropriate.
- Include assertions to validate the requirement.
- Be returned as a string containing the complete function code.
Examples:
- 'def test_navbar_visible(driver):\n    driver.get("index.html")\n    navbar = driver.find_element_by_class("navbar")\n    assert navbar.is_displayed()'
- 'def test_form_validation(driver):\n    driver.get("index.html")\n    form = driver.find_element_by_id("contact-form")\n    submit = form.find_element_by_tag("button")\n    submit.click()\n    assert "required" in driver.page_source'
Return the response in the format defined by the TestsResponse model, with 'tests' as a list of test function strings.`)
	return b.String()
}

// websitePrompt embeds every test verbatim ahead of the structural requirements.
func websitePrompt(tests []string) string {
	var b strings.Builder
	b.WriteString("Generate a static website using Bootstrap 5 that passes the following Python test functions:\n")
	b.WriteString(ruler + "\n")
	b.WriteString(strings.Join(tests, "\n\n"))
	b.WriteString("\n" + ruler + "\n\n")
	b.WriteString(`Requirements:
- Use Bootstrap 5 via CDN for responsive design.
- Include a navbar with ID 'navbar', a hero section with ID 'hero', and a contact form with ID 'contact-form'.
- The contact form must have fields with IDs 'name', 'email', 'message', and a submit button with ID 'submit'.
- Use the 'container' class for layout.
- Ensure the website is responsive for mobile (375x667) and desktop (1200x800) resolutions.
- Include JavaScript for form validation (e.g., check for empty fields and valid email format).
- Set the page title to '` + PageTitle + `' to pass the responsive design test.
Return the response in the format defined by the WebsiteResponse model, with:
- 'html': A complete HTML file with Bootstrap 5 CDN and responsive design.
- 'css': CSS code (without <style> tags) for custom styling.
- 'js': JavaScript code (without <script> tags) for interactivity.
Ensure the code is clean, valid, and passes all provided tests.`)
	return b.String()
}

// PageTitle is the document title the website agent is asked to use.
const PageTitle = "My Website Title"

// RequiredIDs are the element ids the website agent is asked to emit.
var RequiredIDs = []string{"navbar", "hero", "contact-form", "name", "email", "message", "submit"}
